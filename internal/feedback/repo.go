package feedback

import (
	"context"

	"github.com/mind-engage/feedbackbank/internal/ordering"
)

// Store is the persistence contract for the ordered feedback tree. Inputs
// are expected to be validated already. Lookups that miss return a
// *NotFoundError; creates under a missing parent do too.
type Store interface {
	ListModules(ctx context.Context) ([]Module, error) // full nested tree
	GetModule(ctx context.Context, id string) (Module, error)
	CreateModule(ctx context.Context, in ModuleInput) (Module, error)
	UpdateModule(ctx context.Context, id string, in ModuleInput) (Module, error)
	DeleteModule(ctx context.Context, id string) error
	ReorderModules(ctx context.Context, ups []ordering.Update) error

	ListQuestions(ctx context.Context, moduleID string) ([]Question, error)
	GetQuestion(ctx context.Context, moduleID, questionID string) (Question, error)
	CreateQuestion(ctx context.Context, moduleID string, in QuestionInput) (Question, error)
	UpdateQuestion(ctx context.Context, moduleID, questionID string, in QuestionInput) (Question, error)
	DeleteQuestion(ctx context.Context, moduleID, questionID string) error
	ReorderQuestions(ctx context.Context, moduleID string, ups []ordering.Update) error

	CreateElement(ctx context.Context, scope Scope, in ElementInput) (Element, error)
	UpdateElement(ctx context.Context, scope Scope, elementID string, in ElementInput) (Element, error)
	DeleteElement(ctx context.Context, scope Scope, elementID string) error
	ReorderElements(ctx context.Context, scope Scope, ups []ordering.Update) error

	CountModules(ctx context.Context) (int, error)
}
