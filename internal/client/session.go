package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/feedback"
	"github.com/mind-engage/feedbackbank/internal/ordering"
	"github.com/mind-engage/feedbackbank/internal/schema"
)

// Backend is the subset of *API a Session drives.
type Backend interface {
	ListModules(ctx context.Context) ([]feedback.Module, error)
	CreateModule(ctx context.Context, in feedback.ModuleInput) (feedback.Module, error)
	UpdateModule(ctx context.Context, id string, in feedback.ModuleInput) (feedback.Module, error)
	DeleteModule(ctx context.Context, id string) error
	ReorderModules(ctx context.Context, orderedIDs []string) error

	CreateQuestion(ctx context.Context, moduleID string, in feedback.QuestionInput) (feedback.Question, error)
	UpdateQuestion(ctx context.Context, moduleID, questionID string, in feedback.QuestionInput) (feedback.Question, error)
	DeleteQuestion(ctx context.Context, moduleID, questionID string) error
	ReorderQuestions(ctx context.Context, moduleID string, orderedIDs []string) error

	CreateElement(ctx context.Context, scope feedback.Scope, in feedback.ElementInput) (feedback.Element, error)
	UpdateElement(ctx context.Context, scope feedback.Scope, elementID string, in feedback.ElementInput) (feedback.Element, error)
	DeleteElement(ctx context.Context, scope feedback.Scope, elementID string) error
	ReorderElements(ctx context.Context, scope feedback.Scope, orderedIDs []string) error
}

const defaultDebounce = 400 * time.Millisecond

type Option func(*Session)

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

// WithDebounce sets how long a reorder waits for further moves of the same
// sibling set before it is sent.
func WithDebounce(d time.Duration) Option { return func(s *Session) { s.delay = d } }

// Session owns the local tree for one editor or grader view.
//
// Title edits are applied locally before the request is sent. Creates,
// deletes and element edits wait for the server. Moves renumber locally
// and are persisted later; a failed persist is logged and the local order
// is kept until the next Load.
type Session struct {
	api   Backend
	log   *zap.Logger
	delay time.Duration

	mu      sync.Mutex
	tree    Tree
	timers  map[string]*time.Timer
	pending map[string]func(context.Context) error

	// One save per sibling set at a time; a later save reads the tree
	// only after the earlier one has returned.
	saving  map[string]*sync.Mutex
	sending int
	idle    *sync.Cond
}

func NewSession(api Backend, opts ...Option) *Session {
	s := &Session{
		api:     api,
		log:     zap.NewNop(),
		delay:   defaultDebounce,
		tree:    Tree{Modules: []feedback.Module{}},
		timers:  map[string]*time.Timer{},
		pending: map[string]func(context.Context) error{},
		saving:  map[string]*sync.Mutex{},
	}
	s.idle = sync.NewCond(&s.mu)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Tree returns a copy of the current local tree.
func (s *Session) Tree() Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

// Filter applies a display-only search over the local tree.
func (s *Session) Filter(query string) Tree {
	return Filter(s.Tree(), query)
}

func (s *Session) apply(ev Event) {
	s.mu.Lock()
	s.tree = Reduce(s.tree, ev)
	s.mu.Unlock()
}

// Load replaces the local tree with the server's.
func (s *Session) Load(ctx context.Context) error {
	mods, err := s.api.ListModules(ctx)
	if err != nil {
		return err
	}
	s.apply(Loaded{Modules: mods})
	return nil
}

/* ------------------------------ modules ------------------------------ */

func (s *Session) CreateModule(ctx context.Context, in feedback.ModuleInput) (feedback.Module, error) {
	m, err := s.api.CreateModule(ctx, in)
	if err != nil {
		return feedback.Module{}, err
	}
	s.apply(ModuleAdded{Module: m})
	return m, nil
}

// RenameModule shows the new title immediately. If the server rejects it
// the local title stays and the error is returned.
func (s *Session) RenameModule(ctx context.Context, id, title string) error {
	in := feedback.ModuleInput{Title: title}
	if err := schema.Check("Module", &in); err != nil {
		return err
	}
	s.apply(ModuleRenamed{ID: id, Title: in.Title})
	m, err := s.api.UpdateModule(ctx, id, in)
	if err != nil {
		return err
	}
	s.apply(ModuleUpdated{Module: m})
	return nil
}

func (s *Session) DeleteModule(ctx context.Context, id string) error {
	if err := s.api.DeleteModule(ctx, id); err != nil {
		return err
	}
	s.apply(ModuleRemoved{ID: id})
	return nil
}

func (s *Session) MoveModule(from, to int) {
	s.apply(ModuleMoved{From: from, To: to})
	s.schedule("modules", func(ctx context.Context) error {
		s.mu.Lock()
		ids := ordering.IDs(s.tree.Modules, func(m feedback.Module) string { return m.ID })
		s.mu.Unlock()
		return s.api.ReorderModules(ctx, ids)
	})
}

/* ----------------------------- questions ----------------------------- */

func (s *Session) CreateQuestion(ctx context.Context, moduleID string, in feedback.QuestionInput) (feedback.Question, error) {
	q, err := s.api.CreateQuestion(ctx, moduleID, in)
	if err != nil {
		return feedback.Question{}, err
	}
	s.apply(QuestionAdded{Question: q})
	return q, nil
}

func (s *Session) RenameQuestion(ctx context.Context, moduleID, id, title string) error {
	in := feedback.QuestionInput{Title: title}
	if err := schema.Check("Question", &in); err != nil {
		return err
	}
	s.apply(QuestionRenamed{ModuleID: moduleID, ID: id, Title: in.Title})
	q, err := s.api.UpdateQuestion(ctx, moduleID, id, in)
	if err != nil {
		return err
	}
	s.apply(QuestionUpdated{Question: q})
	return nil
}

func (s *Session) DeleteQuestion(ctx context.Context, moduleID, id string) error {
	if err := s.api.DeleteQuestion(ctx, moduleID, id); err != nil {
		return err
	}
	s.apply(QuestionRemoved{ModuleID: moduleID, ID: id})
	return nil
}

func (s *Session) MoveQuestion(moduleID string, from, to int) {
	s.apply(QuestionMoved{ModuleID: moduleID, From: from, To: to})
	s.schedule("questions:"+moduleID, func(ctx context.Context) error {
		s.mu.Lock()
		m, ok := s.tree.Module(moduleID)
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return s.api.ReorderQuestions(ctx, moduleID,
			ordering.IDs(m.Questions, func(q feedback.Question) string { return q.ID }))
	})
}

/* ------------------------------ elements ----------------------------- */

func (s *Session) AddElement(ctx context.Context, scope feedback.Scope, content string) (feedback.Element, error) {
	e, err := s.api.CreateElement(ctx, scope, feedback.ElementInput{Content: content})
	if err != nil {
		return feedback.Element{}, err
	}
	s.apply(ElementAdded{Element: e})
	return e, nil
}

func (s *Session) EditElement(ctx context.Context, scope feedback.Scope, id, content string) (feedback.Element, error) {
	e, err := s.api.UpdateElement(ctx, scope, id, feedback.ElementInput{Content: content})
	if err != nil {
		return feedback.Element{}, err
	}
	s.apply(ElementUpdated{Element: e})
	return e, nil
}

func (s *Session) RemoveElement(ctx context.Context, scope feedback.Scope, id string) error {
	if err := s.api.DeleteElement(ctx, scope, id); err != nil {
		return err
	}
	s.apply(ElementRemoved{Scope: scope, ID: id})
	return nil
}

func (s *Session) MoveElement(scope feedback.Scope, from, to int) {
	s.apply(ElementMoved{Scope: scope, From: from, To: to})
	s.schedule("elements:"+scope.ModuleID+":"+scope.QuestionID, func(ctx context.Context) error {
		s.mu.Lock()
		els := s.tree.Elements(scope)
		ids := ordering.IDs(els, func(e feedback.Element) string { return e.ID })
		s.mu.Unlock()
		if els == nil {
			return nil
		}
		return s.api.ReorderElements(ctx, scope, ids)
	})
}

/* ---------------------------- persistence ---------------------------- */

// schedule (re)arms the debounce timer for one sibling set. Only the last
// order is sent.
func (s *Session) schedule(key string, persist func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.pending[key] = persist
	s.timers[key] = time.AfterFunc(s.delay, func() { s.fire(key) })
}

func (s *Session) fire(key string) {
	s.mu.Lock()
	persist := s.pending[key]
	delete(s.pending, key)
	delete(s.timers, key)
	if persist != nil {
		s.sending++
	}
	s.mu.Unlock()
	if persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.send(ctx, key, persist); err != nil {
		s.log.Warn("reorder not saved", zap.String("set", key), zap.Error(err))
	}
}

// send runs persist once no other save for key is in flight. The caller
// must have counted it in s.sending.
func (s *Session) send(ctx context.Context, key string, persist func(context.Context) error) error {
	s.mu.Lock()
	l, ok := s.saving[key]
	if !ok {
		l = &sync.Mutex{}
		s.saving[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	err := persist(ctx)
	l.Unlock()

	s.mu.Lock()
	s.sending--
	s.idle.Broadcast()
	s.mu.Unlock()
	return err
}

// Flush sends every pending reorder now and returns once no save,
// including ones already started by the debounce timer, is in flight.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	jobs := make(map[string]func(context.Context) error, len(s.pending))
	for k, p := range s.pending {
		jobs[k] = p
		s.timers[k].Stop()
	}
	s.pending = map[string]func(context.Context) error{}
	s.timers = map[string]*time.Timer{}
	s.sending += len(jobs)
	s.mu.Unlock()

	var errs []error
	for k, p := range jobs {
		if err := s.send(ctx, k, p); err != nil {
			s.log.Warn("reorder not saved", zap.String("set", k), zap.Error(err))
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	for s.sending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
	return errors.Join(errs...)
}

// Close drops pending reorders without sending them.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = map[string]*time.Timer{}
	s.pending = map[string]func(context.Context) error{}
}
