package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/guidepost/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run <tutorial>",
	Short: "Play a tutorial",
	Long: `Marks the qubes in scope, starts the watchers and the interaction relay,
and plays the tutorial until its end step, a failure or Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunSession(optionsFromFlags(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("dry-run", false, "Record UI and side effects in memory instead of calling collaborators")
	runCmd.Flags().String("report", "", "Write a Markdown activity report to this file when the run stops")
}
