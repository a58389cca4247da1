package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the interview graph",
	Long: `Loads the configuration, opens the store and builds the interview graph,
reporting every problem found: unknown nodes, incomplete routing, unreachable end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runValidate(cmd); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine, err := cli.CreateEngine(cmd.Context(), cfg, logger)
	if err != nil {
		var gerr *domain.GraphValidationError
		if errors.As(err, &gerr) {
			for _, p := range gerr.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "- %s\n", p)
			}
		}
		return err
	}
	defer engine.Close()

	def := engine.Graph()
	fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, entry '%s', store '%s'\n", len(def.Nodes()), def.Entry(), cfg.Store.Kind)
	return nil
}
