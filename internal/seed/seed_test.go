package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/feedbackbank/internal/db"
	"github.com/mind-engage/feedbackbank/internal/feedback"
	"github.com/mind-engage/feedbackbank/internal/seed"
)

const bankYAML = `
modules:
  - title: Loops
    description: for and while
    elements:
      - Off by one in the loop bound
    questions:
      - title: Termination
        elements:
          - Loop never terminates on empty input
          - Good use of a sentinel
  - title: Recursion
`

func newService(t *testing.T, name string) *feedback.Service {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:"+name+"?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.NoError(t, db.Migrate(ctx, h, db.DriverSQLite))
	return feedback.NewService(feedback.NewSQLStore(h, nil), nil, nil)
}

func TestParse(t *testing.T) {
	b, err := seed.Parse(strings.NewReader(bankYAML))
	require.NoError(t, err)
	require.Len(t, b.Modules, 2)
	assert.Equal(t, "for and while", b.Modules[0].Description)
	assert.Len(t, b.Modules[0].Questions[0].Elements, 2)

	b, err = seed.Parse(strings.NewReader("- title: Only\n"))
	require.NoError(t, err)
	require.Len(t, b.Modules, 1)
	assert.Equal(t, "Only", b.Modules[0].Title)

	_, err = seed.Parse(strings.NewReader("modules: [oops"))
	assert.Error(t, err)

	b, err = seed.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, b.Modules)
}

func TestEncodeParse_EmptyBank(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, seed.Encode(&buf, seed.Bank{Modules: []seed.Module{}}))

	b, err := seed.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Empty(t, b.Modules)

	svc := newService(t, "seed_empty_export")
	out, err := seed.Export(context.Background(), svc)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, seed.Encode(&buf, out))
	b, err = seed.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	res, err := seed.Import(context.Background(), svc, b, false, nil)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{}, res)
}

func TestImport(t *testing.T) {
	svc := newService(t, "seed_import")
	ctx := context.Background()

	b, err := seed.Parse(strings.NewReader(bankYAML))
	require.NoError(t, err)

	res, err := seed.Import(ctx, svc, b, false, nil)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{Modules: 2, Questions: 1, Elements: 3}, res)

	mods, err := svc.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "Loops", mods[0].Title)
	assert.Equal(t, 1, mods[0].Position)
	require.Len(t, mods[0].Questions, 1)
	assert.Equal(t, "Good use of a sentinel", mods[0].Questions[0].Elements[1].Content)
	assert.Equal(t, 2, mods[0].Questions[0].Elements[1].Position)

	_, err = seed.Import(ctx, svc, b, false, nil)
	assert.ErrorIs(t, err, seed.ErrNotEmpty)

	res, err = seed.Import(ctx, svc, b, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Modules)
	n, err := svc.CountModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestImport_StopsOnInvalidEntry(t *testing.T) {
	svc := newService(t, "seed_invalid")

	b := seed.Bank{Modules: []seed.Module{
		{Title: "Loops", Elements: []string{"ok", "  "}},
	}}
	res, err := seed.Import(context.Background(), svc, b, false, nil)
	require.Error(t, err)
	assert.True(t, feedback.IsValidation(err))
	assert.Contains(t, err.Error(), "element #2")
	assert.Equal(t, seed.Result{Modules: 1, Elements: 1}, res)
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newService(t, "seed_export_src")

	b, err := seed.Parse(strings.NewReader(bankYAML))
	require.NoError(t, err)
	_, err = seed.Import(ctx, src, b, false, nil)
	require.NoError(t, err)

	out, err := seed.Export(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, b, out)

	var buf strings.Builder
	require.NoError(t, seed.Encode(&buf, out))
	assert.Contains(t, buf.String(), "title: Loops")

	again, err := seed.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, b, again)
}
