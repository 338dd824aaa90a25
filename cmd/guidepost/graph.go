package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/guidepost/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph <tutorial>",
	Short: "Export the tutorial as a Mermaid flowchart",
	Long: `Prints a Mermaid flowchart of the steps and transitions. With --live the
step of the controller serving the relay is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := inspectOptions(cmd, args)
		return cli.Graph(cmd.Context(), opts, inspectLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().Bool("live", false, "Highlight the current step of the running controller")
}
