package client

import (
	"github.com/mind-engage/feedbackbank/internal/feedback"
	"github.com/mind-engage/feedbackbank/internal/ordering"
)

// Tree is the local mirror of GET /feedback. Values are treated as
// immutable: Reduce always returns a fresh copy.
type Tree struct {
	Modules []feedback.Module
}

// Event is a change applied to a Tree by Reduce.
type Event interface{ isEvent() }

type (
	// Loaded replaces the whole tree with a fresh fetch.
	Loaded struct{ Modules []feedback.Module }

	ModuleAdded   struct{ Module feedback.Module }
	ModuleUpdated struct{ Module feedback.Module }
	ModuleRenamed struct{ ID, Title string }
	ModuleRemoved struct{ ID string }
	ModuleMoved   struct{ From, To int }

	QuestionAdded   struct{ Question feedback.Question }
	QuestionUpdated struct{ Question feedback.Question }
	QuestionRenamed struct{ ModuleID, ID, Title string }
	QuestionRemoved struct{ ModuleID, ID string }
	QuestionMoved   struct {
		ModuleID string
		From, To int
	}

	ElementAdded   struct{ Element feedback.Element }
	ElementUpdated struct{ Element feedback.Element }
	ElementRemoved struct {
		Scope feedback.Scope
		ID    string
	}
	ElementMoved struct {
		Scope    feedback.Scope
		From, To int
	}
)

func (Loaded) isEvent()          {}
func (ModuleAdded) isEvent()     {}
func (ModuleUpdated) isEvent()   {}
func (ModuleRenamed) isEvent()   {}
func (ModuleRemoved) isEvent()   {}
func (ModuleMoved) isEvent()     {}
func (QuestionAdded) isEvent()   {}
func (QuestionUpdated) isEvent() {}
func (QuestionRenamed) isEvent() {}
func (QuestionRemoved) isEvent() {}
func (QuestionMoved) isEvent()   {}
func (ElementAdded) isEvent()    {}
func (ElementUpdated) isEvent()  {}
func (ElementRemoved) isEvent()  {}
func (ElementMoved) isEvent()    {}

// Reduce applies ev to a copy of t. Events naming ids that are not in the
// tree leave it unchanged.
func Reduce(t Tree, ev Event) Tree {
	if l, ok := ev.(Loaded); ok {
		return Normalize(Tree{Modules: l.Modules})
	}
	out := t.Clone()
	switch e := ev.(type) {
	case ModuleAdded:
		m := cloneModule(e.Module)
		ensureChildren(&m)
		out.Modules = append(out.Modules, m)

	case ModuleUpdated:
		if m := out.module(e.Module.ID); m != nil {
			qs, els := m.Questions, m.Elements
			*m = cloneModule(e.Module)
			// updates from PUT carry children; keep the local ones otherwise
			if e.Module.Questions == nil {
				m.Questions = qs
			}
			if e.Module.Elements == nil {
				m.Elements = els
			}
		}
		ordering.Sort(out.Modules, feedback.ModuleKey)

	case ModuleRenamed:
		if m := out.module(e.ID); m != nil {
			m.Title = e.Title
		}

	case ModuleRemoved:
		out.Modules = remove(out.Modules, func(m feedback.Module) bool { return m.ID == e.ID })

	case ModuleMoved:
		out.Modules = ordering.Move(out.Modules, e.From, e.To)
		ordering.Renumber(out.Modules, func(m *feedback.Module, p int) { m.Position = p })

	case QuestionAdded:
		if m := out.module(e.Question.ModuleID); m != nil {
			q := cloneQuestion(e.Question)
			if q.Elements == nil {
				q.Elements = []feedback.Element{}
			}
			m.Questions = append(m.Questions, q)
		}

	case QuestionUpdated:
		if q := out.question(e.Question.ModuleID, e.Question.ID); q != nil {
			els := q.Elements
			*q = cloneQuestion(e.Question)
			if e.Question.Elements == nil {
				q.Elements = els
			}
			m := out.module(e.Question.ModuleID)
			ordering.Sort(m.Questions, feedback.QuestionKey)
		}

	case QuestionRenamed:
		if q := out.question(e.ModuleID, e.ID); q != nil {
			q.Title = e.Title
		}

	case QuestionRemoved:
		if m := out.module(e.ModuleID); m != nil {
			m.Questions = remove(m.Questions, func(q feedback.Question) bool { return q.ID == e.ID })
		}

	case QuestionMoved:
		if m := out.module(e.ModuleID); m != nil {
			m.Questions = ordering.Move(m.Questions, e.From, e.To)
			ordering.Renumber(m.Questions, func(q *feedback.Question, p int) { q.Position = p })
		}

	case ElementAdded:
		if list := out.elements(scopeOf(e.Element)); list != nil {
			*list = append(*list, e.Element)
		}

	case ElementUpdated:
		if list := out.elements(scopeOf(e.Element)); list != nil {
			for i := range *list {
				if (*list)[i].ID == e.Element.ID {
					(*list)[i] = e.Element
				}
			}
			ordering.Sort(*list, feedback.ElementKey)
		}

	case ElementRemoved:
		if list := out.elements(e.Scope); list != nil {
			*list = remove(*list, func(el feedback.Element) bool { return el.ID == e.ID })
		}

	case ElementMoved:
		if list := out.elements(e.Scope); list != nil {
			*list = ordering.Move(*list, e.From, e.To)
			ordering.Renumber(*list, func(el *feedback.Element, p int) { el.Position = p })
		}
	}
	return out
}

// Normalize returns a copy with every level sorted by position, then
// creation time, matching the server's order.
func Normalize(t Tree) Tree {
	out := t.Clone()
	ordering.Sort(out.Modules, feedback.ModuleKey)
	for i := range out.Modules {
		m := &out.Modules[i]
		ensureChildren(m)
		ordering.Sort(m.Questions, feedback.QuestionKey)
		ordering.Sort(m.Elements, feedback.ElementKey)
		for j := range m.Questions {
			if m.Questions[j].Elements == nil {
				m.Questions[j].Elements = []feedback.Element{}
			}
			ordering.Sort(m.Questions[j].Elements, feedback.ElementKey)
		}
	}
	return out
}

// Clone deep-copies the tree down to element slices.
func (t Tree) Clone() Tree {
	if t.Modules == nil {
		return Tree{Modules: []feedback.Module{}}
	}
	out := Tree{Modules: make([]feedback.Module, len(t.Modules))}
	for i, m := range t.Modules {
		out.Modules[i] = cloneModule(m)
	}
	return out
}

// Module returns the module with id, or false.
func (t Tree) Module(id string) (feedback.Module, bool) {
	for _, m := range t.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return feedback.Module{}, false
}

// Elements returns the element list for scope, or nil when the parent is
// not in the tree.
func (t Tree) Elements(scope feedback.Scope) []feedback.Element {
	if p := t.elements(scope); p != nil {
		return *p
	}
	return nil
}

func (t Tree) module(id string) *feedback.Module {
	for i := range t.Modules {
		if t.Modules[i].ID == id {
			return &t.Modules[i]
		}
	}
	return nil
}

func (t Tree) question(moduleID, id string) *feedback.Question {
	m := t.module(moduleID)
	if m == nil {
		return nil
	}
	for i := range m.Questions {
		if m.Questions[i].ID == id {
			return &m.Questions[i]
		}
	}
	return nil
}

func (t Tree) elements(scope feedback.Scope) *[]feedback.Element {
	if scope.QuestionID != "" {
		if q := t.question(scope.ModuleID, scope.QuestionID); q != nil {
			return &q.Elements
		}
		return nil
	}
	if m := t.module(scope.ModuleID); m != nil {
		return &m.Elements
	}
	return nil
}

func scopeOf(e feedback.Element) feedback.Scope {
	s := feedback.Scope{ModuleID: e.ModuleID}
	if e.QuestionID != nil {
		s.QuestionID = *e.QuestionID
	}
	return s
}

func ensureChildren(m *feedback.Module) {
	if m.Questions == nil {
		m.Questions = []feedback.Question{}
	}
	if m.Elements == nil {
		m.Elements = []feedback.Element{}
	}
}

func cloneModule(m feedback.Module) feedback.Module {
	if m.Questions != nil {
		qs := make([]feedback.Question, len(m.Questions))
		for i, q := range m.Questions {
			qs[i] = cloneQuestion(q)
		}
		m.Questions = qs
	}
	if m.Elements != nil {
		m.Elements = append([]feedback.Element{}, m.Elements...)
	}
	return m
}

func cloneQuestion(q feedback.Question) feedback.Question {
	if q.Elements != nil {
		q.Elements = append([]feedback.Element{}, q.Elements...)
	}
	return q
}

func remove[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}
