package feedback

import (
	"time"

	"github.com/mind-engage/feedbackbank/internal/ordering"
)

// Element is a single reusable comment snippet. QuestionID is nil for
// elements that hang directly off a module.
type Element struct {
	ID         string    `json:"id"`
	ModuleID   string    `json:"moduleId"`
	QuestionID *string   `json:"questionId,omitempty"`
	Content    string    `json:"content"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Question struct {
	ID          string    `json:"id"`
	ModuleID    string    `json:"moduleId"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Elements    []Element `json:"elements"`
}

type Module struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Questions   []Question `json:"questions"`
	Elements    []Element  `json:"elements"`
}

// Scope names the parent of an element list. An empty QuestionID means the
// module-level list.
type Scope struct {
	ModuleID   string
	QuestionID string
}

func (s Scope) parentEntity() string {
	if s.QuestionID != "" {
		return "Question"
	}
	return "Module"
}

func ModuleKey(m Module) ordering.Key {
	return ordering.Key{Position: m.Position, CreatedAt: m.CreatedAt, ID: m.ID}
}

func QuestionKey(q Question) ordering.Key {
	return ordering.Key{Position: q.Position, CreatedAt: q.CreatedAt, ID: q.ID}
}

func ElementKey(e Element) ordering.Key {
	return ordering.Key{Position: e.Position, CreatedAt: e.CreatedAt, ID: e.ID}
}
