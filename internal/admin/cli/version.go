package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/dkn/internal/version"
)

type versionOptions struct {
	short  bool
	asJSON bool
}

func newVersionCmd() *cobra.Command {
	opts := &versionOptions{}
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.short, "short", false, "print only the version")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print build information as JSON")
	cmd.MarkFlagsMutuallyExclusive("short", "json")
	return cmd
}

func runVersion(cmd *cobra.Command, opts *versionOptions) error {
	info := version.Get()
	out := cmd.OutOrStdout()
	switch {
	case opts.short:
		_, err := fmt.Fprintln(out, info.Version)
		return err
	case opts.asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	default:
		_, err := fmt.Fprintln(out, info)
		return err
	}
}
