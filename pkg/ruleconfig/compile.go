package ruleconfig

import (
	"github.com/r9s-ai/dkn/pkg/jsonutil"
)

// inherited carries the resolved attributes a parent passes to its children.
type inherited struct {
	level         int
	comment       string
	macros        []Macro
	templates     map[string]Template
	staticStyles  []string
	dynamicStyles []string
	customStyles  []string
}

func rootInherited() inherited {
	return inherited{
		level:     DefaultLevel,
		templates: map[string]Template{},
	}
}

// ParseConfigString decodes text and compiles it. Malformed JSON yields a
// KindParse *ConfigError, an invalid document a KindConfig one.
func ParseConfigString(text string, styles StyleNames) (*Rule, error) {
	doc, err := jsonutil.Decode(text)
	if err != nil {
		return nil, &ConfigError{Kind: KindParse, Err: err}
	}
	return Compile(doc, styles)
}

// Compile builds the rule tree for a decoded document. The document is
// itself compiled as a rule whose compiled children become the children of
// a fresh default root, so its own attributes reach URLs only through
// those children.
func Compile(doc any, styles StyleNames) (*Rule, error) {
	c := compiler{shape: ruleShape(styles)}
	rules, err := c.compile(doc, rootInherited())
	if err != nil {
		return nil, &ConfigError{Kind: KindConfig, Err: err}
	}
	root := DefaultRule()
	root.Rules = rules
	return root, nil
}

type compiler struct {
	shape Shape
}

// compile returns the rules that take the place of raw in its parent's
// child list: one rule when raw has a regex, its compiled children
// otherwise.
func (c compiler) compile(raw any, parent inherited) ([]*Rule, error) {
	obj := withDefaults(raw, parent.level)
	if err := ValidateObject(obj, c.shape); err != nil {
		return nil, err
	}
	m := obj.(map[string]any)

	self := inherited{
		level:     mustInt(m["level"]),
		comment:   joinComment(parent.comment, m["comment"]),
		macros:    append(append([]Macro{}, parent.macros...), decodeMacros(m["macros"])...),
		templates: mergeTemplates(parent.templates, m["templates"]),
	}

	own := m["customStyles"].([]any)
	expanded := make([]any, len(own))
	for i, v := range own {
		if v == nil {
			continue
		}
		css, err := ExpandValue(v, self.macros, self.templates)
		if err != nil {
			return nil, withPath(indexPath(".customStyles", i), err)
		}
		expanded[i] = css
	}
	self.staticStyles = inheritList(parent.staticStyles, m["staticStyles"].([]any))
	self.dynamicStyles = inheritList(parent.dynamicStyles, m["dynamicStyles"].([]any))
	self.customStyles = inheritList(parent.customStyles, expanded)

	children := []*Rule{}
	for i, child := range m["rules"].([]any) {
		out, err := c.compile(child, self)
		if err != nil {
			return nil, withPath(indexPath(".rules", i), err)
		}
		children = append(children, out...)
	}

	source, ok := m["regex"].(string)
	if !ok {
		return children, nil
	}
	pattern, err := CompilePattern(source)
	if err != nil {
		return nil, withPath(".regex", &ValidationIssue{Message: err.Error()})
	}
	return []*Rule{{
		Pattern:       pattern,
		Level:         self.level,
		Comment:       self.comment,
		StaticStyles:  self.staticStyles,
		DynamicStyles: self.dynamicStyles,
		CustomStyles:  self.customStyles,
		Rules:         children,
	}}, nil
}

// withDefaults returns a shallow copy of raw with absent attributes filled
// in. Values that are not objects are returned unchanged and fail
// validation.
func withDefaults(raw any, parentLevel int) any {
	m, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	out := map[string]any{
		"level":         parentLevel,
		"macros":        []any{},
		"templates":     map[string]any{},
		"staticStyles":  []any{},
		"dynamicStyles": []any{},
		"customStyles":  []any{},
		"rules":         []any{},
	}
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mustInt(v any) int {
	n, _ := jsonutil.AsInt(v)
	return n
}

// joinComment appends own to the inherited comment on a new line. An empty
// inherited comment contributes no separator.
func joinComment(parent string, own any) string {
	s, ok := own.(string)
	if !ok {
		return parent
	}
	if parent == "" {
		return s
	}
	return parent + "\n" + s
}

func decodeMacros(v any) []Macro {
	list, _ := v.([]any)
	out := make([]Macro, 0, len(list))
	for _, item := range list {
		pair := item.([]any)
		out = append(out, Macro{Name: pair[0].(string), Value: pair[1].(string)})
	}
	return out
}

func mergeTemplates(parent map[string]Template, v any) map[string]Template {
	out := make(map[string]Template, len(parent))
	for k, t := range parent {
		out[k] = t
	}
	own, _ := v.(map[string]any)
	for name, raw := range own {
		obj := raw.(map[string]any)
		t := Template{Text: obj["template"].(string)}
		if c, ok := obj["comment"].(string); ok {
			t.Comment = c
		}
		out[name] = t
	}
	return out
}

// inheritList appends own to a copy of base. A null entry discards
// everything accumulated so far.
func inheritList(base []string, own []any) []string {
	out := append([]string{}, base...)
	for _, v := range own {
		if v == nil {
			out = []string{}
			continue
		}
		out = append(out, v.(string))
	}
	return out
}
