package server

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

type cachedRule struct {
	generation uint64
	rule       ruleconfig.EffectiveRule
}

// ruleCache memoizes effective rules per URL. Entries are tagged with the
// resolver generation they were computed at and ignored once it moves on.
type ruleCache struct {
	lru *lru.Cache[string, cachedRule]
}

// newRuleCache returns a cache holding up to size URLs. A size of zero
// disables caching.
func newRuleCache(size int) (*ruleCache, error) {
	if size <= 0 {
		return &ruleCache{}, nil
	}
	c, err := lru.New[string, cachedRule](size)
	if err != nil {
		return nil, err
	}
	return &ruleCache{lru: c}, nil
}

func (c *ruleCache) get(url string, generation uint64) (ruleconfig.EffectiveRule, bool) {
	if c == nil || c.lru == nil {
		return ruleconfig.EffectiveRule{}, false
	}
	e, ok := c.lru.Get(url)
	if !ok || e.generation != generation {
		return ruleconfig.EffectiveRule{}, false
	}
	return e.rule, true
}

func (c *ruleCache) add(url string, generation uint64, rule ruleconfig.EffectiveRule) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(url, cachedRule{generation: generation, rule: rule})
}

func (c *ruleCache) purge() {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Purge()
}

func (c *ruleCache) len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
