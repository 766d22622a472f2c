package ruleconfig

import (
	"path"
	"strings"
)

const (
	MinLevel     = 1
	MaxLevel     = 9
	DefaultLevel = 5
	// EnabledLevel is the lowest level at which styling is applied.
	EnabledLevel = 5
)

// Rule is a compiled rule tree node. Inherited attributes are already
// merged in and custom styles are fully expanded. The root node has no
// Pattern. A compiled tree is never modified.
type Rule struct {
	Pattern       *Pattern `json:"regex,omitempty"`
	Level         int      `json:"level"`
	Comment       string   `json:"comment"`
	StaticStyles  []string `json:"staticStyles"`
	DynamicStyles []string `json:"dynamicStyles"`
	CustomStyles  []string `json:"customStyles"`
	Rules         []*Rule  `json:"rules"`
}

// DefaultRule returns a fresh root with no children: level 5, no comment
// and no styles.
func DefaultRule() *Rule {
	return &Rule{
		Level:         DefaultLevel,
		StaticStyles:  []string{},
		DynamicStyles: []string{},
		CustomStyles:  []string{},
		Rules:         []*Rule{},
	}
}

// Effective returns r without its pattern and children.
func (r *Rule) Effective() EffectiveRule {
	if r == nil {
		return DefaultEffectiveRule()
	}
	return EffectiveRule{
		Level:         r.Level,
		Comment:       r.Comment,
		StaticStyles:  cloneStrings(r.StaticStyles),
		DynamicStyles: cloneStrings(r.DynamicStyles),
		CustomStyles:  cloneStrings(r.CustomStyles),
	}
}

// EffectiveRule is the styling decision for one URL.
type EffectiveRule struct {
	Level         int      `json:"level"`
	Comment       string   `json:"comment"`
	StaticStyles  []string `json:"staticStyles"`
	DynamicStyles []string `json:"dynamicStyles"`
	CustomStyles  []string `json:"customStyles"`
}

func DefaultEffectiveRule() EffectiveRule {
	return DefaultRule().Effective()
}

// Enabled reports whether styling applies at this level.
func (e EffectiveRule) Enabled() bool {
	return e.Level >= EnabledLevel
}

// CustomCSS joins the custom styles into one stylesheet body.
func (e EffectiveRule) CustomCSS() string {
	return strings.Join(e.CustomStyles, "\n")
}

// StylesheetPaths returns the bundle-relative path of each static style.
func (e EffectiveRule) StylesheetPaths() []string {
	out := make([]string, 0, len(e.StaticStyles))
	for _, name := range e.StaticStyles {
		out = append(out, path.Join("style", name+".css"))
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
