package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/feedbackbank/internal/db"
	"github.com/mind-engage/feedbackbank/internal/ordering"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestStore(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	h, err := db.Open(ctx, db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&_pragma=foreign_keys(1)", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, db.Migrate(ctx, h, db.DriverSQLite))

	clk := &fakeClock{t: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	return NewSQLStore(h, clk.Now), h
}

func count(t *testing.T, h *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, h.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestCreateModule_AppendsAtMaxPlusOne(t *testing.T) {
	st, h := newTestStore(t)
	ctx := context.Background()

	m1, err := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	require.NoError(t, err)
	assert.Equal(t, 1, m1.Position)
	assert.Empty(t, m1.Questions)
	assert.Empty(t, m1.Elements)
	assert.NotEmpty(t, m1.ID)
	assert.Nil(t, m1.Description)

	m2, err := st.CreateModule(ctx, ModuleInput{Title: "Recursion", Description: strp("base cases")})
	require.NoError(t, err)
	assert.Equal(t, 2, m2.Position)
	require.NotNil(t, m2.Description)
	assert.Equal(t, "base cases", *m2.Description)

	// leave a gap: next insert follows the max, not the count
	_, err = h.Exec(`UPDATE feedback_modules SET position = 10 WHERE id = $1`, m2.ID)
	require.NoError(t, err)
	m3, err := st.CreateModule(ctx, ModuleInput{Title: "Sorting"})
	require.NoError(t, err)
	assert.Equal(t, 11, m3.Position)
}

func TestReorderModules_DenseAndListed(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	loops, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	rec, _ := st.CreateModule(ctx, ModuleInput{Title: "Recursion"})
	sorting, _ := st.CreateModule(ctx, ModuleInput{Title: "Sorting"})

	ups, err := ordering.Plan([]string{sorting.ID, rec.ID, loops.ID})
	require.NoError(t, err)
	require.NoError(t, st.ReorderModules(ctx, ups))

	mods, err := st.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, []string{"Sorting", "Recursion", "Loops"},
		[]string{mods[0].Title, mods[1].Title, mods[2].Title})
	for i, m := range mods {
		assert.Equal(t, i+1, m.Position)
	}
	assert.True(t, mods[0].UpdatedAt.After(sorting.UpdatedAt))
}

func TestListModules_TieBreaksOnCreatedAt(t *testing.T) {
	st, h := newTestStore(t)
	ctx := context.Background()

	a, _ := st.CreateModule(ctx, ModuleInput{Title: "A"})
	b, _ := st.CreateModule(ctx, ModuleInput{Title: "B"})
	// simulate the accepted duplicate-position race
	_, err := h.Exec(`UPDATE feedback_modules SET position = 1`)
	require.NoError(t, err)

	mods, err := st.ListModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, []string{mods[0].ID, mods[1].ID})
}

func TestUpdateModule(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	m, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops", Description: strp("for/while")})

	u1, err := st.UpdateModule(ctx, m.ID, ModuleInput{Title: "Loops 2"})
	require.NoError(t, err)
	u2, err := st.UpdateModule(ctx, m.ID, ModuleInput{Title: "Loops 2"})
	require.NoError(t, err)

	assert.Equal(t, u1.Title, u2.Title)
	require.NotNil(t, u2.Description, "absent description is left unchanged")
	assert.Equal(t, "for/while", *u2.Description)
	assert.Equal(t, m.Position, u2.Position, "absent position is left unchanged")
	assert.True(t, u2.UpdatedAt.After(u1.UpdatedAt))
	assert.True(t, u2.CreatedAt.Equal(m.CreatedAt))

	u3, err := st.UpdateModule(ctx, m.ID, ModuleInput{Title: "Loops", Description: strp(""), Position: intp(7)})
	require.NoError(t, err)
	assert.Nil(t, u3.Description)
	assert.Equal(t, 7, u3.Position)

	_, err = st.UpdateModule(ctx, "missing", ModuleInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Module not found")
}

func TestDeleteModule_CascadesAndSecondDeleteIsNotFound(t *testing.T) {
	st, h := newTestStore(t)
	ctx := context.Background()

	m, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	keep, _ := st.CreateModule(ctx, ModuleInput{Title: "Keep"})
	q, err := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q1"})
	require.NoError(t, err)
	_, err = st.CreateElement(ctx, Scope{ModuleID: m.ID, QuestionID: q.ID}, ElementInput{Content: "nice"})
	require.NoError(t, err)
	_, err = st.CreateElement(ctx, Scope{ModuleID: m.ID}, ElementInput{Content: "general"})
	require.NoError(t, err)
	_, err = st.CreateElement(ctx, Scope{ModuleID: keep.ID}, ElementInput{Content: "stays"})
	require.NoError(t, err)

	require.NoError(t, st.DeleteModule(ctx, m.ID))

	assert.Equal(t, 1, count(t, h, "feedback_modules"))
	assert.Equal(t, 0, count(t, h, "feedback_questions"))
	assert.Equal(t, 1, count(t, h, "feedback_elements"))

	err = st.DeleteModule(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Module not found")

	_, err = st.ListQuestions(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestions_CRUDAndCascade(t *testing.T) {
	st, h := newTestStore(t)
	ctx := context.Background()

	m, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	other, _ := st.CreateModule(ctx, ModuleInput{Title: "Other"})

	q1, err := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q1"})
	require.NoError(t, err)
	q2, err := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q2"})
	require.NoError(t, err)
	oq, err := st.CreateQuestion(ctx, other.ID, QuestionInput{Title: "OQ"})
	require.NoError(t, err)
	assert.Equal(t, 1, q1.Position)
	assert.Equal(t, 2, q2.Position)
	assert.Equal(t, 1, oq.Position, "positions are scoped to the module")

	_, err = st.CreateQuestion(ctx, "missing", QuestionInput{Title: "x"})
	assert.EqualError(t, err, "Module not found")

	e1, err := st.CreateElement(ctx, Scope{ModuleID: m.ID, QuestionID: q1.ID}, ElementInput{Content: "a"})
	require.NoError(t, err)
	require.NotNil(t, e1.QuestionID)
	assert.Equal(t, q1.ID, *e1.QuestionID)

	got, err := st.GetQuestion(ctx, m.ID, q1.ID)
	require.NoError(t, err)
	require.Len(t, got.Elements, 1)
	assert.Equal(t, "a", got.Elements[0].Content)

	_, err = st.GetQuestion(ctx, other.ID, q1.ID)
	assert.EqualError(t, err, "Question not found", "question lookups are scoped to their module")

	qs, err := st.ListQuestions(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Len(t, qs[0].Elements, 1)
	assert.Empty(t, qs[1].Elements)

	upd, err := st.UpdateQuestion(ctx, m.ID, q2.ID, QuestionInput{Title: "Q2b", Description: strp("d")})
	require.NoError(t, err)
	assert.Equal(t, "Q2b", upd.Title)
	assert.Equal(t, 2, upd.Position)

	require.NoError(t, st.DeleteQuestion(ctx, m.ID, q1.ID))
	assert.Equal(t, 0, count(t, h, "feedback_elements"))
	assert.EqualError(t, st.DeleteQuestion(ctx, m.ID, q1.ID), "Question not found")
}

func TestElements_ScopesAreIndependent(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	m, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	q, _ := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q1"})

	modScope := Scope{ModuleID: m.ID}
	qScope := Scope{ModuleID: m.ID, QuestionID: q.ID}

	me1, _ := st.CreateElement(ctx, modScope, ElementInput{Content: "m1"})
	qe1, _ := st.CreateElement(ctx, qScope, ElementInput{Content: "q1"})
	me2, _ := st.CreateElement(ctx, modScope, ElementInput{Content: "m2"})
	qe2, _ := st.CreateElement(ctx, qScope, ElementInput{Content: "q2"})

	assert.Equal(t, []int{1, 1, 2, 2}, []int{me1.Position, qe1.Position, me2.Position, qe2.Position})
	assert.Nil(t, me1.QuestionID)

	_, err := st.CreateElement(ctx, Scope{ModuleID: m.ID, QuestionID: "nope"}, ElementInput{Content: "x"})
	assert.EqualError(t, err, "Question not found")
	_, err = st.CreateElement(ctx, Scope{ModuleID: "nope"}, ElementInput{Content: "x"})
	assert.EqualError(t, err, "Module not found")

	// an element is only addressable through its own scope
	_, err = st.UpdateElement(ctx, modScope, qe1.ID, ElementInput{Content: "x"})
	assert.EqualError(t, err, "Element not found")

	upd, err := st.UpdateElement(ctx, qScope, qe1.ID, ElementInput{Content: "q1b", Position: intp(5)})
	require.NoError(t, err)
	assert.Equal(t, "q1b", upd.Content)
	assert.Equal(t, 5, upd.Position)

	mod, err := st.GetModule(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, mod.Elements, 2)
	require.Len(t, mod.Questions, 1)
	require.Len(t, mod.Questions[0].Elements, 2)
	assert.Equal(t, "q2", mod.Questions[0].Elements[0].Content)
	assert.Equal(t, "q1b", mod.Questions[0].Elements[1].Content)

	require.NoError(t, st.DeleteElement(ctx, modScope, me1.ID))
	assert.EqualError(t, st.DeleteElement(ctx, modScope, me1.ID), "Element not found")
}

func TestReorderElements_OnlyTouchesScope(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	m, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	q, _ := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q1"})
	scope := Scope{ModuleID: m.ID}

	a, _ := st.CreateElement(ctx, scope, ElementInput{Content: "a"})
	b, _ := st.CreateElement(ctx, scope, ElementInput{Content: "b"})
	qe, _ := st.CreateElement(ctx, Scope{ModuleID: m.ID, QuestionID: q.ID}, ElementInput{Content: "qe"})

	// qe belongs to a different sibling set and must be ignored
	ups, err := ordering.Plan([]string{b.ID, qe.ID, a.ID})
	require.NoError(t, err)
	require.NoError(t, st.ReorderElements(ctx, scope, ups))

	mod, err := st.GetModule(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, []string{mod.Elements[0].Content, mod.Elements[1].Content})
	assert.Equal(t, 1, mod.Elements[0].Position)
	assert.Equal(t, 3, mod.Elements[1].Position)
	assert.Equal(t, 1, mod.Questions[0].Elements[0].Position)

	err = st.ReorderElements(ctx, Scope{ModuleID: "missing"}, ups)
	assert.EqualError(t, err, "Module not found")
}

func TestReorderQuestions(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	m, _ := st.CreateModule(ctx, ModuleInput{Title: "Loops"})
	q1, _ := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q1"})
	q2, _ := st.CreateQuestion(ctx, m.ID, QuestionInput{Title: "Q2"})

	ups, _ := ordering.Plan([]string{q2.ID, q1.ID})
	require.NoError(t, st.ReorderQuestions(ctx, m.ID, ups))

	qs, err := st.ListQuestions(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2", "Q1"}, []string{qs[0].Title, qs[1].Title})
	assert.Equal(t, []int{1, 2}, []int{qs[0].Position, qs[1].Position})

	assert.EqualError(t, st.ReorderQuestions(ctx, "missing", ups), "Module not found")
}

func TestCountModules(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	n, err := st.CountModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, _ = st.CreateModule(ctx, ModuleInput{Title: "A"})
	n, err = st.CountModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
