package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/guidepost/internal/cli"
)

var pathsCmd = &cobra.Command{
	Use:   "paths <tutorial>",
	Short: "List every acyclic way through a tutorial",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := inspectOptions(cmd, args)
		return cli.Paths(opts, inspectLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)

	pathsCmd.Flags().Bool("shape-only", false, "Do not resolve side effects against the configuration")
}
