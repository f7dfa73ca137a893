package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func el(id, mod, q, content string, pos int) feedback.Element {
	e := feedback.Element{ID: id, ModuleID: mod, Content: content, Position: pos, CreatedAt: t0}
	if q != "" {
		e.QuestionID = &q
	}
	return e
}

func sample() Tree {
	return Tree{Modules: []feedback.Module{
		{
			ID: "m2", Title: "Recursion", Position: 2, CreatedAt: t0,
			Questions: []feedback.Question{
				{ID: "q2", ModuleID: "m2", Title: "Base case", Position: 2, CreatedAt: t0,
					Elements: []feedback.Element{el("e3", "m2", "q2", "Missing base case", 1)}},
				{ID: "q1", ModuleID: "m2", Title: "Stack depth", Position: 1, CreatedAt: t0},
			},
		},
		{
			ID: "m1", Title: "Loops", Position: 1, CreatedAt: t0,
			Elements: []feedback.Element{
				el("e2", "m1", "", "Off by one", 2),
				el("e1", "m1", "", "Nice loop invariant", 1),
			},
		},
	}}
}

func titles(t Tree) []string {
	out := []string{}
	for _, m := range t.Modules {
		out = append(out, m.Title)
	}
	return out
}

func TestNormalize(t *testing.T) {
	in := sample()
	n := Normalize(in)

	assert.Equal(t, []string{"Loops", "Recursion"}, titles(n))
	assert.Equal(t, "e1", n.Modules[0].Elements[0].ID)
	assert.Equal(t, "q1", n.Modules[1].Questions[0].ID)
	assert.NotNil(t, n.Modules[1].Questions[0].Elements, "missing children become empty lists")
	assert.NotNil(t, n.Modules[0].Questions)

	assert.Equal(t, "Recursion", in.Modules[0].Title, "input is not reordered")
}

func TestNormalize_TieBreaksOnCreatedAt(t *testing.T) {
	in := Tree{Modules: []feedback.Module{
		{ID: "b", Title: "B", Position: 1, CreatedAt: t0.Add(time.Second)},
		{ID: "a", Title: "A", Position: 1, CreatedAt: t0},
	}}
	assert.Equal(t, []string{"A", "B"}, titles(Normalize(in)))
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	in := Normalize(sample())

	out := Reduce(in, ModuleRenamed{ID: "m1", Title: "For loops"})
	out = Reduce(out, ElementMoved{Scope: feedback.Scope{ModuleID: "m1"}, From: 0, To: 1})
	out = Reduce(out, QuestionRemoved{ModuleID: "m2", ID: "q1"})

	assert.Equal(t, "Loops", in.Modules[0].Title)
	assert.Equal(t, "e1", in.Modules[0].Elements[0].ID)
	assert.Len(t, in.Modules[1].Questions, 2)

	assert.Equal(t, "For loops", out.Modules[0].Title)
	assert.Equal(t, "e2", out.Modules[0].Elements[0].ID)
	assert.Equal(t, 1, out.Modules[0].Elements[0].Position)
	assert.Equal(t, 2, out.Modules[0].Elements[1].Position)
	assert.Len(t, out.Modules[1].Questions, 1)
}

func TestReduce_ModuleMoveRenumbers(t *testing.T) {
	in := Normalize(sample())
	in = Reduce(in, ModuleAdded{Module: feedback.Module{ID: "m3", Title: "Sorting", Position: 3, CreatedAt: t0}})
	require.Len(t, in.Modules, 3)
	assert.NotNil(t, in.Modules[2].Questions)

	out := Reduce(in, ModuleMoved{From: 2, To: 0})
	assert.Equal(t, []string{"Sorting", "Loops", "Recursion"}, titles(out))
	for i, m := range out.Modules {
		assert.Equal(t, i+1, m.Position)
	}
}

func TestReduce_Elements(t *testing.T) {
	tr := Normalize(sample())
	qScope := feedback.Scope{ModuleID: "m2", QuestionID: "q2"}

	tr = Reduce(tr, ElementAdded{Element: el("e4", "m2", "q2", "Good recursion", 2)})
	assert.Len(t, tr.Elements(qScope), 2)

	upd := el("e4", "m2", "q2", "Great recursion", 2)
	tr = Reduce(tr, ElementUpdated{Element: upd})
	assert.Equal(t, "Great recursion", tr.Elements(qScope)[1].Content)

	tr = Reduce(tr, ElementRemoved{Scope: qScope, ID: "e3"})
	require.Len(t, tr.Elements(qScope), 1)
	assert.Equal(t, "e4", tr.Elements(qScope)[0].ID)

	// unknown parents are ignored
	same := Reduce(tr, ElementAdded{Element: el("x", "nope", "", "x", 1)})
	assert.Equal(t, tr, same)
	assert.Nil(t, tr.Elements(feedback.Scope{ModuleID: "nope"}))
}

func TestReduce_Questions(t *testing.T) {
	tr := Normalize(sample())

	tr = Reduce(tr, QuestionAdded{Question: feedback.Question{ID: "q3", ModuleID: "m1", Title: "Termination", Position: 1, CreatedAt: t0}})
	m, ok := tr.Module("m1")
	require.True(t, ok)
	require.Len(t, m.Questions, 1)
	assert.NotNil(t, m.Questions[0].Elements)

	tr = Reduce(tr, QuestionMoved{ModuleID: "m2", From: 0, To: 1})
	m, _ = tr.Module("m2")
	assert.Equal(t, "q2", m.Questions[0].ID)
	assert.Equal(t, 1, m.Questions[0].Position)

	tr = Reduce(tr, QuestionUpdated{Question: feedback.Question{ID: "q2", ModuleID: "m2", Title: "Base cases", Position: 1, CreatedAt: t0}})
	m, _ = tr.Module("m2")
	assert.Equal(t, "Base cases", m.Questions[0].Title)
	assert.Len(t, m.Questions[0].Elements, 1, "update without elements keeps local ones")
}

func TestReduce_LoadedReplaces(t *testing.T) {
	tr := Normalize(sample())
	tr = Reduce(tr, Loaded{Modules: []feedback.Module{{ID: "x", Title: "Only", Position: 1}}})
	assert.Equal(t, []string{"Only"}, titles(tr))
}

func TestFilter(t *testing.T) {
	tr := Normalize(sample())

	assert.Equal(t, tr, Filter(tr, "  "))

	f := Filter(tr, "LOOP")
	require.Len(t, f.Modules, 1)
	assert.Equal(t, "Loops", f.Modules[0].Title)
	assert.Len(t, f.Modules[0].Elements, 2, "matching module is kept whole")

	f = Filter(tr, "base case")
	require.Len(t, f.Modules, 1)
	require.Len(t, f.Modules[0].Questions, 1)
	assert.Equal(t, "q2", f.Modules[0].Questions[0].ID)
	assert.Equal(t, 2, f.Modules[0].Questions[0].Position, "positions are untouched")

	f = Filter(tr, "off by")
	require.Len(t, f.Modules, 1)
	assert.Empty(t, f.Modules[0].Questions)
	require.Len(t, f.Modules[0].Elements, 1)
	assert.Equal(t, 2, f.Modules[0].Elements[0].Position)

	assert.Empty(t, Filter(tr, "zzz").Modules)
	assert.Len(t, tr.Modules[0].Elements, 2, "filtering never changes the source tree")
}
