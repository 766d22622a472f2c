package cli

import (
	"github.com/spf13/cobra"

	"github.com/r9s-ai/dkn/internal/admin/tui"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var initialURL string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Interactively resolve URLs against the active config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			return tui.Run(cmd.Context(), rt.Resolver, initialURL, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&initialURL, "url", "u", "", "URL to resolve on start")
	return cmd
}
