package feedback

import (
	"context"

	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/ordering"
	"github.com/mind-engage/feedbackbank/internal/schema"
)

// Recorder receives one event per successful mutation.
type Recorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

// Service validates inputs, delegates to the Store and records changes.
type Service struct {
	store  Store
	events Recorder
	log    *zap.Logger
}

func NewService(store Store, events Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, events: events, log: log}
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, typ, key, data); err != nil {
		s.log.Warn("change log append failed", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}

func plan(ids []string) ([]ordering.Update, error) {
	ups, err := ordering.Plan(ids)
	if err != nil {
		return nil, schema.Invalid("orderedIds", err.Error())
	}
	return ups, nil
}

/* ------------------------------ modules ------------------------------ */

func (s *Service) ListModules(ctx context.Context) ([]Module, error) {
	return s.store.ListModules(ctx)
}

func (s *Service) GetModule(ctx context.Context, id string) (Module, error) {
	return s.store.GetModule(ctx, id)
}

func (s *Service) CreateModule(ctx context.Context, in ModuleInput) (Module, error) {
	if err := schema.Check("Module", &in); err != nil {
		return Module{}, err
	}
	in.Position = nil
	m, err := s.store.CreateModule(ctx, in)
	if err != nil {
		return Module{}, err
	}
	s.record(ctx, "module.created", m.ID, map[string]any{"title": m.Title, "position": m.Position})
	return m, nil
}

func (s *Service) UpdateModule(ctx context.Context, id string, in ModuleInput) (Module, error) {
	if err := schema.Check("Module", &in); err != nil {
		return Module{}, err
	}
	m, err := s.store.UpdateModule(ctx, id, in)
	if err != nil {
		return Module{}, err
	}
	s.record(ctx, "module.updated", m.ID, map[string]any{"title": m.Title, "position": m.Position})
	return m, nil
}

func (s *Service) DeleteModule(ctx context.Context, id string) error {
	if err := s.store.DeleteModule(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "module.deleted", id, nil)
	return nil
}

func (s *Service) ReorderModules(ctx context.Context, in ReorderInput) error {
	if err := schema.Check("", &in); err != nil {
		return err
	}
	ups, err := plan(in.OrderedIDs)
	if err != nil {
		return err
	}
	if err := s.store.ReorderModules(ctx, ups); err != nil {
		return err
	}
	s.record(ctx, "modules.reordered", "", in.OrderedIDs)
	return nil
}

func (s *Service) CountModules(ctx context.Context) (int, error) {
	return s.store.CountModules(ctx)
}

/* ----------------------------- questions ----------------------------- */

func (s *Service) ListQuestions(ctx context.Context, moduleID string) ([]Question, error) {
	return s.store.ListQuestions(ctx, moduleID)
}

func (s *Service) GetQuestion(ctx context.Context, moduleID, questionID string) (Question, error) {
	return s.store.GetQuestion(ctx, moduleID, questionID)
}

func (s *Service) CreateQuestion(ctx context.Context, moduleID string, in QuestionInput) (Question, error) {
	if err := schema.Check("Question", &in); err != nil {
		return Question{}, err
	}
	in.Position = nil
	q, err := s.store.CreateQuestion(ctx, moduleID, in)
	if err != nil {
		return Question{}, err
	}
	s.record(ctx, "question.created", q.ID, map[string]any{"moduleId": moduleID, "title": q.Title})
	return q, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, moduleID, questionID string, in QuestionInput) (Question, error) {
	if err := schema.Check("Question", &in); err != nil {
		return Question{}, err
	}
	q, err := s.store.UpdateQuestion(ctx, moduleID, questionID, in)
	if err != nil {
		return Question{}, err
	}
	s.record(ctx, "question.updated", q.ID, map[string]any{"moduleId": moduleID, "title": q.Title})
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, moduleID, questionID string) error {
	if err := s.store.DeleteQuestion(ctx, moduleID, questionID); err != nil {
		return err
	}
	s.record(ctx, "question.deleted", questionID, map[string]any{"moduleId": moduleID})
	return nil
}

func (s *Service) ReorderQuestions(ctx context.Context, moduleID string, in ReorderInput) error {
	if err := schema.Check("", &in); err != nil {
		return err
	}
	ups, err := plan(in.OrderedIDs)
	if err != nil {
		return err
	}
	if err := s.store.ReorderQuestions(ctx, moduleID, ups); err != nil {
		return err
	}
	s.record(ctx, "questions.reordered", moduleID, in.OrderedIDs)
	return nil
}

/* ------------------------------ elements ----------------------------- */

func (s *Service) CreateElement(ctx context.Context, scope Scope, in ElementInput) (Element, error) {
	if err := schema.Check("Element", &in); err != nil {
		return Element{}, err
	}
	in.Position = nil
	e, err := s.store.CreateElement(ctx, scope, in)
	if err != nil {
		return Element{}, err
	}
	s.record(ctx, "element.created", e.ID, scopeData(scope))
	return e, nil
}

func (s *Service) UpdateElement(ctx context.Context, scope Scope, elementID string, in ElementInput) (Element, error) {
	if err := schema.Check("Element", &in); err != nil {
		return Element{}, err
	}
	e, err := s.store.UpdateElement(ctx, scope, elementID, in)
	if err != nil {
		return Element{}, err
	}
	s.record(ctx, "element.updated", e.ID, scopeData(scope))
	return e, nil
}

func (s *Service) DeleteElement(ctx context.Context, scope Scope, elementID string) error {
	if err := s.store.DeleteElement(ctx, scope, elementID); err != nil {
		return err
	}
	s.record(ctx, "element.deleted", elementID, scopeData(scope))
	return nil
}

// ReorderModuleElements handles PATCH /feedback/elements/reorder, where the
// module id travels in the body.
func (s *Service) ReorderModuleElements(ctx context.Context, in ElementReorderInput) error {
	if err := schema.Check("", &in); err != nil {
		return err
	}
	return s.ReorderElements(ctx, Scope{ModuleID: in.ModuleID}, ReorderInput{OrderedIDs: in.OrderedIDs})
}

func (s *Service) ReorderElements(ctx context.Context, scope Scope, in ReorderInput) error {
	if err := schema.Check("", &in); err != nil {
		return err
	}
	ups, err := plan(in.OrderedIDs)
	if err != nil {
		return err
	}
	if err := s.store.ReorderElements(ctx, scope, ups); err != nil {
		return err
	}
	key := scope.ModuleID
	if scope.QuestionID != "" {
		key = scope.QuestionID
	}
	s.record(ctx, "elements.reordered", key, in.OrderedIDs)
	return nil
}

func scopeData(scope Scope) map[string]string {
	d := map[string]string{"moduleId": scope.ModuleID}
	if scope.QuestionID != "" {
		d["questionId"] = scope.QuestionID
	}
	return d
}
