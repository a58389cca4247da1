package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the interview graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the interview steps and routing.
With --session, the node the session is waiting at is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		var overlay *graph.Overlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			st, err := engine.Status(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", id, err)
			}
			overlay = &graph.Overlay{CurrentNode: st.PendingNode}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight where this session is waiting")
}
