package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/dkn/internal/wiring"
	"github.com/r9s-ai/dkn/pkg/jsonutil"
	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a rule document without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			styles, err := wiring.StyleNames(cfg)
			if err != nil {
				return err
			}
			text, err := readDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			root, err := ruleconfig.ParseConfigString(text, styles)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "validate: OK (%d top-level rules)\n", len(root.Rules))
			return err
		},
	}
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the active rule document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			text, err := rt.Resolver.GetConfigString(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n")); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\n", rt.Resolver.LastLoad().Source)
			return err
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <file|->",
		Short: "Validate a rule document and save it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			rt, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			if _, err := rt.Resolver.SetConfigString(cmd.Context(), text); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved. source=%s\n", rt.Resolver.LastLoad().Source)
			return err
		},
	}
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the compiled rule tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			root, err := rt.Resolver.GetCompiledConfig(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), root.TreeString())
			return err
		},
	}
}

type queryOptions struct {
	file string
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	qopts := queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Print values of the rule document matched by $.a.b[0].c style paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if strings.TrimSpace(qopts.file) != "" {
				t, err := readDocument(qopts.file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = t
			} else {
				rt, err := opts.openRuntime(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = rt.Close() }()
				t, err := rt.Resolver.GetConfigString(cmd.Context())
				if err != nil {
					return err
				}
				text = t
			}
			doc, err := jsonutil.Decode(text)
			if err != nil {
				return fmt.Errorf("JSON parsing failed. %w", err)
			}
			values, ok := jsonutil.GetValuesByPath(doc, args[0])
			if !ok {
				return fmt.Errorf("no value at %s", args[0])
			}
			for _, v := range values {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), jsonutil.Render(v)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&qopts.file, "file", "f", "", "query this document instead of the active config")
	return cmd
}
