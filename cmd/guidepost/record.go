package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/guidepost/internal/cli"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record user activity into a Markdown report",
	Long: `Watches the qubes in scope and the interaction relay without playing a
tutorial. On Ctrl+C the recorded interactions are written as a report.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunRecord(optionsFromFlags(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().Bool("dry-run", false, "Do not mark qubes or read host logs")
	recordCmd.Flags().String("report", "", "Write the report to this file instead of stdout")
}
