package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

type resolveOptions struct {
	url   string
	css   bool
	trace bool
}

type resolveOutput struct {
	URL string `json:"url"`
	ruleconfig.EffectiveRule
	Enabled     bool     `json:"enabled"`
	Stylesheets []string `json:"stylesheets"`
	Trace       []string `json:"trace,omitempty"`
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	ropts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve [url]",
		Short: "Print the effective rule for a URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(ropts.url)
			if url == "" && len(args) == 1 {
				url = strings.TrimSpace(args[0])
			}
			if url == "" {
				return errors.New("a url is required (--url or argument)")
			}
			rt, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			root, err := rt.Resolver.GetCompiledConfig(cmd.Context())
			if err != nil {
				return err
			}
			rule := ruleconfig.Resolve(root, url)
			if ropts.css {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), rule.CustomCSS())
				return err
			}
			out := resolveOutput{
				URL:           url,
				EffectiveRule: rule,
				Enabled:       rule.Enabled(),
				Stylesheets:   rule.StylesheetPaths(),
			}
			if ropts.trace {
				out.Trace = tracePatterns(ruleconfig.Trace(root, url))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&ropts.url, "url", "u", "", "page URL to resolve")
	fs.BoolVar(&ropts.css, "css", false, "print only the custom CSS")
	fs.BoolVar(&ropts.trace, "trace", false, "include the patterns matched at each level")
	return cmd
}

func tracePatterns(chain []*ruleconfig.Rule) []string {
	out := make([]string, 0, len(chain))
	for _, r := range chain {
		if r.Pattern == nil {
			continue
		}
		out = append(out, r.Pattern.String())
	}
	return out
}
