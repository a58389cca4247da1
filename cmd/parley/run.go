package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Hold an interview in the terminal",
	Long: `Starts a new interview, or resumes a suspended one with --session, reading
answers from stdin. Closing stdin or pressing Ctrl+C leaves the session resumable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Name, _ = cmd.Flags().GetString("name")
		opts.MaxQuestions, _ = cmd.Flags().GetInt("questions")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		return cli.Execute(cfg, logger, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session ID to create or resume")
	runCmd.Flags().StringP("name", "n", "", "Student name to confirm in the greeting")
	runCmd.Flags().IntP("questions", "q", 0, "Number of questions (default from config)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
