package defaults

import (
	"testing"

	"github.com/r9s-ai/dkn/pkg/ruleconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledConfigCompiles(t *testing.T) {
	root, err := ruleconfig.ParseConfigString(ConfigString(), ruleconfig.StyleNames{Dynamic: ruleconfig.DefaultDynamicStyles})
	require.NoError(t, err)
	require.Len(t, root.Rules, 4)

	rule := ruleconfig.Resolve(root, "about:blank")
	assert.False(t, rule.Enabled())
	assert.Empty(t, rule.CustomStyles)

	rule = ruleconfig.Resolve(root, "https://en.wikipedia.org/wiki/Go")
	assert.Equal(t, []string{"blackBg", "brightText"}, rule.DynamicStyles)
	assert.Equal(t, []string{
		"a { color: #8ab4f8 !important; }",
		"#content { background-color: #111 !important; }",
		"#content { color: #ddd !important; }",
	}, rule.CustomStyles)

	rule = ruleconfig.Resolve(root, "https://github.com/golang/go")
	assert.Equal(t, 3, rule.Level)
	assert.Empty(t, rule.DynamicStyles)
}
