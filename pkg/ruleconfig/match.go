package ruleconfig

// Resolve returns the effective rule for url. At each level the first child
// whose pattern matches is selected and the search continues below it; the
// deepest selected rule wins. When no top-level rule matches the root is
// returned, which carries the default attributes.
func Resolve(root *Rule, url string) EffectiveRule {
	trace := Trace(root, url)
	if len(trace) == 0 {
		return DefaultEffectiveRule()
	}
	return trace[len(trace)-1].Effective()
}

// Trace returns the chain of rules selected for url, starting with root.
func Trace(root *Rule, url string) []*Rule {
	if root == nil {
		return nil
	}
	chain := []*Rule{root}
	cur := root
	for {
		next := firstMatch(cur.Rules, url)
		if next == nil {
			return chain
		}
		chain = append(chain, next)
		cur = next
	}
}

func firstMatch(rules []*Rule, url string) *Rule {
	for _, r := range rules {
		if r.Pattern.MatchString(url) {
			return r
		}
	}
	return nil
}
