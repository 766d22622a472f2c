package ruleconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandMacros_AppliesLastDeclaredFirst(t *testing.T) {
	// B->A runs first, then A->1 rewrites its output.
	assert.Equal(t, "1", ExpandMacros("B", []Macro{{"A", "1"}, {"B", "A"}}))
	// A->1 runs first and finds nothing; B->A is not revisited.
	assert.Equal(t, "A", ExpandMacros("B", []Macro{{"B", "A"}, {"A", "1"}}))
}

func TestExpandMacros_LaterDefinitionWinsOnCollision(t *testing.T) {
	macros := []Macro{{"BG", "black"}, {"BG", "navy"}}
	assert.Equal(t, "background: navy", ExpandMacros("background: BG", macros))
}

func TestExpandTemplate_PositionalArgs(t *testing.T) {
	assert.Equal(t, "rgba(255,0,0,0.5)", ExpandTemplate("rgba(ARG_1,0,0,ARG_2)", []string{"255", "0.5"}))
	assert.Equal(t, "ARG_2", ExpandTemplate("ARG_2", []string{"x"}))

	args := make([]string, 10)
	for i := range args {
		args[i] = string(rune('a' + i))
	}
	assert.Equal(t, "j a", ExpandTemplate("ARG_10 ARG_1", args))
}

func TestExpandValue(t *testing.T) {
	templates := map[string]Template{
		"rgba":  {Text: "rgba(ARG_1,0,0,ARG_2)"},
		"color": {Text: "color: ARG_1 !important"},
		"fg":    {Text: "FG"},
	}
	macros := []Macro{{"FG", "#eee"}}

	got, err := ExpandValue([]any{"rgba", "255", "0.5"}, nil, templates)
	require.NoError(t, err)
	assert.Equal(t, "rgba(255,0,0,0.5)", got)

	got, err = ExpandValue([]any{"color", []any{"rgba", "1", "FG"}}, macros, templates)
	require.NoError(t, err)
	assert.Equal(t, "color: rgba(1,0,0,#eee) !important", got)

	got, err = ExpandValue([]any{"fg"}, macros, templates)
	require.NoError(t, err)
	assert.Equal(t, "#eee", got)

	got, err = ExpandValue("a FG", macros, templates)
	require.NoError(t, err)
	assert.Equal(t, "a #eee", got)
}

func TestExpandValue_Errors(t *testing.T) {
	templates := map[string]Template{"color": {Text: "color: ARG_1"}}

	_, err := ExpandValue([]any{"nope", "x"}, nil, templates)
	assert.EqualError(t, err, "[0]: template 'nope' is not defined.")

	_, err = ExpandValue([]any{"color", "x", []any{"missing"}}, nil, templates)
	assert.EqualError(t, err, "[2][0]: template 'missing' is not defined.")

	_, err = ExpandValue([]any{}, nil, templates)
	assert.EqualError(t, err, "[0]: template 'undefined' is not defined.")

	_, err = ExpandValue(3, nil, templates)
	assert.EqualError(t, err, ": must be a string or an array.")
}
