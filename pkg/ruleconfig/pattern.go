package ruleconfig

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// PatternMatchTimeout bounds a single pattern evaluation. A pattern that
// runs out of time is treated as not matching.
var PatternMatchTimeout = 250 * time.Millisecond

// Pattern is a compiled rule regex. Patterns use ECMAScript syntax and are
// unanchored: they match when they match any substring of the URL.
type Pattern struct {
	source string
	re     *regexp2.Regexp
}

func CompilePattern(source string) (*Pattern, error) {
	re, err := regexp2.Compile(source, regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression: %v", err)
	}
	re.MatchTimeout = PatternMatchTimeout
	return &Pattern{source: source, re: re}, nil
}

func (p *Pattern) MatchString(s string) bool {
	if p == nil || p.re == nil {
		return false
	}
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

func (p *Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}
