package ruleconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/r9s-ai/dkn/pkg/jsonutil"
)

// Macro is a literal substring replacement.
type Macro struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Template is a text snippet with ARG_1..ARG_n placeholders.
type Template struct {
	Text    string `json:"template"`
	Comment string `json:"comment,omitempty"`
}

// ExpandMacros replaces every occurrence of each macro name with its value.
// Macros are applied from the last to the first, so a later (more deeply
// nested) definition is substituted first and its output can still be
// rewritten by earlier definitions.
func ExpandMacros(text string, macros []Macro) string {
	for i := len(macros) - 1; i >= 0; i-- {
		if macros[i].Name == "" {
			continue
		}
		text = strings.ReplaceAll(text, macros[i].Name, macros[i].Value)
	}
	return text
}

// ExpandTemplate binds args to ARG_1..ARG_n and expands them in text.
func ExpandTemplate(text string, args []string) string {
	macros := make([]Macro, 0, len(args))
	for i, arg := range args {
		macros = append(macros, Macro{Name: "ARG_" + strconv.Itoa(i+1), Value: arg})
	}
	return ExpandMacros(text, macros)
}

// ExpandValue turns a custom style value into CSS text. A string has macros
// expanded. An array [name, arg1, ...] instantiates template name with the
// recursively expanded arguments, then expands macros in the result.
func ExpandValue(v any, macros []Macro, templates map[string]Template) (string, error) {
	switch t := v.(type) {
	case string:
		return ExpandMacros(t, macros), nil
	case []any:
		var name any
		if len(t) > 0 {
			name = t[0]
		}
		key, isString := name.(string)
		tmpl, ok := templates[key]
		if !isString || !ok {
			return "", &ValidationIssue{
				Path:    "[0]",
				Message: fmt.Sprintf("template '%s' is not defined.", templateRefName(name, len(t) > 0)),
			}
		}
		args := make([]string, 0, len(t)-1)
		for i := 1; i < len(t); i++ {
			arg, err := ExpandValue(t[i], macros, templates)
			if err != nil {
				return "", withPath(fmt.Sprintf("[%d]", i), err)
			}
			args = append(args, arg)
		}
		return ExpandMacros(ExpandTemplate(tmpl.Text, args), macros), nil
	default:
		return "", issuef("must be a string or an array.")
	}
}

func templateRefName(v any, present bool) string {
	if !present {
		return "undefined"
	}
	return jsonutil.Render(v)
}
