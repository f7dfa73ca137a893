package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct{ typ, key string }

type memRecorder struct {
	events []recorded
	fail   bool
}

func (r *memRecorder) Record(_ context.Context, typ, key string, _ any) error {
	if r.fail {
		return errors.New("disk full")
	}
	r.events = append(r.events, recorded{typ, key})
	return nil
}

func newTestService(t *testing.T) (*Service, *memRecorder) {
	t.Helper()
	st, _ := newTestStore(t)
	rec := &memRecorder{}
	return NewService(st, rec, nil), rec
}

func TestService_TrimsAndRejectsBlankInput(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, ModuleInput{Title: "  Loops  ", Description: strp("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Loops", m.Title)
	assert.Nil(t, m.Description, "blank description is stored as null")

	_, err = svc.CreateModule(ctx, ModuleInput{Title: "   "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "Module title is required")

	_, err = svc.UpdateModule(ctx, m.ID, ModuleInput{Title: ""})
	assert.EqualError(t, err, "Module title is required")

	_, err = svc.UpdateModule(ctx, m.ID, ModuleInput{Title: "x", Position: intp(0)})
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "position must be at least 1")

	_, err = svc.CreateQuestion(ctx, m.ID, QuestionInput{Title: "\t"})
	assert.EqualError(t, err, "Question title is required")

	_, err = svc.CreateElement(ctx, Scope{ModuleID: m.ID}, ElementInput{Content: " \n "})
	assert.EqualError(t, err, "Element content is required")

	e, err := svc.CreateElement(ctx, Scope{ModuleID: m.ID}, ElementInput{Content: " Good use of recursion. "})
	require.NoError(t, err)
	assert.Equal(t, "Good use of recursion.", e.Content)

	assert.Equal(t, []recorded{{"module.created", m.ID}, {"element.created", e.ID}}, rec.events)
}

func TestService_CreateIgnoresPosition(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, ModuleInput{Title: "Loops", Position: intp(40)})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
}

func TestService_ReorderValidation(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateModule(ctx, ModuleInput{Title: "Loops"})
	b, _ := svc.CreateModule(ctx, ModuleInput{Title: "Recursion"})

	err := svc.ReorderModules(ctx, ReorderInput{})
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "orderedIds is required")

	err = svc.ReorderModules(ctx, ReorderInput{OrderedIDs: []string{}})
	assert.True(t, IsValidation(err))

	err = svc.ReorderModules(ctx, ReorderInput{OrderedIDs: []string{a.ID, a.ID}})
	assert.True(t, IsValidation(err))

	err = svc.ReorderModules(ctx, ReorderInput{OrderedIDs: []string{a.ID, " "}})
	assert.True(t, IsValidation(err))

	require.NoError(t, svc.ReorderModules(ctx, ReorderInput{OrderedIDs: []string{b.ID, a.ID}}))
	mods, err := svc.ListModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Recursion", mods[0].Title)
	assert.Equal(t, recorded{"modules.reordered", ""}, rec.events[len(rec.events)-1])
}

func TestService_ReorderModuleElements(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, _ := svc.CreateModule(ctx, ModuleInput{Title: "Loops"})
	e1, _ := svc.CreateElement(ctx, Scope{ModuleID: m.ID}, ElementInput{Content: "first"})
	e2, _ := svc.CreateElement(ctx, Scope{ModuleID: m.ID}, ElementInput{Content: "second"})

	err := svc.ReorderModuleElements(ctx, ElementReorderInput{OrderedIDs: []string{e2.ID}})
	assert.EqualError(t, err, "moduleId is required")

	err = svc.ReorderModuleElements(ctx, ElementReorderInput{ModuleID: "missing", OrderedIDs: []string{e2.ID}})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.ReorderModuleElements(ctx, ElementReorderInput{
		ModuleID: m.ID, OrderedIDs: []string{e2.ID, e1.ID},
	}))
	got, err := svc.GetModule(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, []string{got.Elements[0].Content, got.Elements[1].Content})
}

func TestService_RecorderFailureDoesNotFailMutation(t *testing.T) {
	svc, rec := newTestService(t)
	rec.fail = true

	m, err := svc.CreateModule(context.Background(), ModuleInput{Title: "Loops"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
}

func TestService_DeleteNotFoundIsNotRecorded(t *testing.T) {
	svc, rec := newTestService(t)

	err := svc.DeleteModule(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, rec.events)
}
