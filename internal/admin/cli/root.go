// Package cli implements the dkn-admin command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/dkn/internal/wiring"
	"github.com/r9s-ai/dkn/pkg/config"
)

const defaultConfigPath = "dkn.yaml"

type rootOptions struct {
	cfgPath string
}

// Execute runs dkn-admin with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "dkn-admin",
		Short:         "Inspect and manage dkn style rule configs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", defaultConfigPath, "config yaml path (defaults apply when missing)")

	cmd.AddCommand(
		newValidateCmd(opts),
		newResolveCmd(opts),
		newTreeCmd(opts),
		newGetCmd(opts),
		newSetCmd(opts),
		newQueryCmd(opts),
		newInspectCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadIfExists(strings.TrimSpace(o.cfgPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", o.cfgPath, err)
	}
	return cfg, nil
}

func (o *rootOptions) openRuntime(ctx context.Context) (*wiring.Runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return wiring.Open(ctx, cfg)
}

// readDocument reads a rule document from path, or from in when path is "-".
func readDocument(path string, in io.Reader) (string, error) {
	if strings.TrimSpace(path) == "-" {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	// #nosec G304 -- path comes from the operator.
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(b), nil
}
