package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titled struct {
	Title    string `json:"title" validate:"required"`
	Position *int   `json:"position" validate:"omitempty,gte=1"`
}

func (t *titled) Normalize() { t.Title = strings.TrimSpace(t.Title) }

type ordered struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1"`
}

func TestCheck_TrimsBeforeRequired(t *testing.T) {
	in := &titled{Title: "  Foo  "}
	require.NoError(t, Check("Module", in))
	assert.Equal(t, "Foo", in.Title)

	err := Check("Module", &titled{Title: "   "})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "Module title is required", ve.Message)
}

func TestCheck_Position(t *testing.T) {
	zero := 0
	err := Check("Element", &titled{Title: "x", Position: &zero})
	require.Error(t, err)
	assert.Equal(t, "position must be at least 1", err.Error())

	one := 1
	assert.NoError(t, Check("Element", &titled{Title: "x", Position: &one}))
}

func TestCheck_SliceRules(t *testing.T) {
	err := Check("", &ordered{})
	require.Error(t, err)
	assert.Equal(t, "orderedIds is required", err.Error())

	err = Check("", &ordered{OrderedIDs: []string{}})
	require.Error(t, err)
	assert.Equal(t, "orderedIds must contain at least 1 item(s)", err.Error())
}
