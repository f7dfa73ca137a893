package feedback

import "strings"

// ModuleInput is the body of POST /feedback and PUT /feedback/{id}.
type ModuleInput struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Position    *int    `json:"position" validate:"omitempty,gte=1"`
}

func (in *ModuleInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimPtr(in.Description)
}

// QuestionInput is the body of question create/update.
type QuestionInput struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Position    *int    `json:"position" validate:"omitempty,gte=1"`
}

func (in *QuestionInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimPtr(in.Description)
}

// ElementInput is the body of element create/update. Position is ignored
// on create.
type ElementInput struct {
	Content  string `json:"content" validate:"required"`
	Position *int   `json:"position" validate:"omitempty,gte=1"`
}

func (in *ElementInput) Normalize() { in.Content = strings.TrimSpace(in.Content) }

// ReorderInput carries the complete desired order of one sibling set.
type ReorderInput struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1"`
}

// ElementReorderInput is the body of PATCH /feedback/elements/reorder.
type ElementReorderInput struct {
	ModuleID   string   `json:"moduleId" validate:"required"`
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1"`
}

func (in *ElementReorderInput) Normalize() { in.ModuleID = strings.TrimSpace(in.ModuleID) }

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
