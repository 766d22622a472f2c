package ruleconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/r9s-ai/dkn/pkg/jsonutil"
)

// Validator checks one decoded JSON value. A failure is returned as a
// *ValidationIssue whose Path is relative to the value.
type Validator func(v any) error

// Field declares one key of an object shape.
type Field struct {
	Name     string
	Validate Validator
	Optional bool
}

// Shape describes an object. Rest, when set, validates every key not named
// in Fields; without it unknown keys are rejected.
type Shape struct {
	Fields []Field
	Rest   Validator
}

func (s Shape) lookup(key string) Validator {
	for _, f := range s.Fields {
		if f.Name == key {
			return f.Validate
		}
	}
	return s.Rest
}

func (s Shape) keyNames() string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, fmt.Sprintf("%q", f.Name))
	}
	return strings.Join(names, ", ")
}

// ValidateObject checks v against shape. Required keys are checked first,
// then present keys in declaration order followed by unknown keys sorted by
// name, so the reported issue is stable for a given document.
func ValidateObject(v any, shape Shape) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return issuef("must be an object.")
	}
	for _, f := range shape.Fields {
		if _, ok := obj[f.Name]; !ok && !f.Optional {
			return issuef("missing key %q.", f.Name)
		}
	}
	for _, key := range orderedKeys(obj, shape) {
		validate := shape.lookup(key)
		if validate == nil {
			return issuef("invalid key name %q. Valid key names are: %s", key, shape.keyNames())
		}
		if err := validate(obj[key]); err != nil {
			return withPath("."+key, err)
		}
	}
	return nil
}

func orderedKeys(obj map[string]any, shape Shape) []string {
	keys := make([]string, 0, len(obj))
	known := make(map[string]bool, len(shape.Fields))
	for _, f := range shape.Fields {
		known[f.Name] = true
		if _, ok := obj[f.Name]; ok {
			keys = append(keys, f.Name)
		}
	}
	var rest []string
	for k := range obj {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// ValidateArray checks that v is an array whose element at index i passes
// validators[i], or the last validator once i runs past the list. An empty
// validator list accepts any elements.
func ValidateArray(v any, minLength int, validators ...Validator) error {
	arr, ok := v.([]any)
	if !ok {
		return issuef("must be an array.")
	}
	if len(arr) < minLength {
		return issuef("must have at least %d elements.", minLength)
	}
	if len(validators) == 0 {
		return nil
	}
	for i, el := range arr {
		validate := validators[len(validators)-1]
		if i < len(validators) {
			validate = validators[i]
		}
		if validate == nil {
			continue
		}
		if err := validate(el); err != nil {
			return withPath(fmt.Sprintf("[%d]", i), err)
		}
	}
	return nil
}

// ValidateIncludes checks that v is one of allowed. A nil entry in allowed
// admits JSON null.
func ValidateIncludes(v any, allowed []any) error {
	for _, a := range allowed {
		if a == nil && v == nil {
			return nil
		}
		if s, ok := a.(string); ok {
			if vs, ok := v.(string); ok && vs == s {
				return nil
			}
		}
	}
	return issuef(`invalid value "%s". Valid values are: %s`, jsonutil.Render(v), prettyValues(allowed))
}

func prettyValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			parts = append(parts, "null")
			continue
		}
		parts = append(parts, `"`+jsonutil.Render(v)+`"`)
	}
	return strings.Join(parts, ", ")
}

// ValidateString checks that v is a string, and non-empty when nonEmpty is set.
func ValidateString(v any, nonEmpty bool) error {
	s, ok := v.(string)
	if !ok {
		return issuef("must be a string.")
	}
	if nonEmpty && s == "" {
		return issuef("string must not be empty.")
	}
	return nil
}

// ValidateLevel checks that v is an integer in [MinLevel, MaxLevel].
func ValidateLevel(v any) error {
	n, ok := jsonutil.AsInt(v)
	if !ok || n < MinLevel || n > MaxLevel {
		return issuef("must be an integer between %d and %d inclusive.", MinLevel, MaxLevel)
	}
	return nil
}

// ValidatePattern checks that v is a string that compiles as a match pattern.
func ValidatePattern(v any) error {
	s, ok := v.(string)
	if !ok {
		return issuef("must be a string.")
	}
	if _, err := CompilePattern(s); err != nil {
		return &ValidationIssue{Message: err.Error()}
	}
	return nil
}

func stringValidator(nonEmpty bool) Validator {
	return func(v any) error { return ValidateString(v, nonEmpty) }
}

func includesValidator(allowed []any) Validator {
	return func(v any) error { return ValidateIncludes(v, allowed) }
}
