package ruleconfig

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// TreeString renders the rule tree one node per line, for diagnostics.
func (r *Rule) TreeString() string {
	if r == nil {
		return ""
	}
	tree := treeprint.NewWithRoot(r.label())
	addRules(tree, r.Rules)
	return tree.String()
}

func addRules(tree treeprint.Tree, rules []*Rule) {
	for _, child := range rules {
		if len(child.Rules) == 0 {
			tree.AddNode(child.label())
			continue
		}
		addRules(tree.AddBranch(child.label()), child.Rules)
	}
}

func (r *Rule) label() string {
	var b strings.Builder
	if r.Pattern == nil {
		b.WriteString("(root)")
	} else {
		fmt.Fprintf(&b, "/%s/", r.Pattern)
	}
	fmt.Fprintf(&b, " level=%d", r.Level)
	if len(r.StaticStyles) > 0 {
		fmt.Fprintf(&b, " static=%s", strings.Join(r.StaticStyles, ","))
	}
	if len(r.DynamicStyles) > 0 {
		fmt.Fprintf(&b, " dynamic=%s", strings.Join(r.DynamicStyles, ","))
	}
	if n := len(r.CustomStyles); n > 0 {
		fmt.Fprintf(&b, " custom=%d", n)
	}
	return b.String()
}
