// Package cli implements the facetree command tree: one-shot searches over a
// fixture file, cache invalidation and a watch mode that re-runs a search
// whenever the fixture changes.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/facetree/dataset"
)

// NewRootCommand returns the facetree command with all subcommands wired in.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "facetree",
		Short:        "Permission-aware hierarchical search over a fixture",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "TOML config file")
	cmd.PersistentFlags().String("data", "", "fixture file (.json or .msgpack)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	cmd.AddCommand(
		newSearchCmd(false),
		newSearchCmd(true),
		newInvalidateCmd(),
		newWatchCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return cmd
}

// loadInputs reads the config and the fixture named by the persistent flags.
func loadInputs(cmd *cobra.Command) (Config, *dataset.Repository, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	dataPath, _ := cmd.Flags().GetString("data")

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return cfg, nil, err
	}
	if dataPath == "" {
		return cfg, nil, errors.New("--data is required")
	}
	repo, err := dataset.Load(dataPath)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, repo, nil
}

func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
