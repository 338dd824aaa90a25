package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/guidepost/internal/cli"
	"github.com/aretw0/guidepost/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate <tutorial>",
	Short: "Check a tutorial for consistency",
	Long: `Loads the tutorial, resolves its side effects against the configuration and
reports missing, unreachable or dead-end steps. With --replay every acyclic
path is played on an in-memory engine.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := inspectOptions(cmd, args)
		return cli.Validate(cmd.Context(), opts, inspectLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("replay", false, "Replay every acyclic path")
	validateCmd.Flags().Bool("shape-only", false, "Do not resolve side effects against the configuration")
}

func inspectOptions(cmd *cobra.Command, args []string) cli.InspectOptions {
	opts := cli.InspectOptions{Options: optionsFromFlags(cmd, args)}
	if cmd.Flags().Lookup("replay") != nil {
		opts.Replay, _ = cmd.Flags().GetBool("replay")
	}
	if cmd.Flags().Lookup("shape-only") != nil {
		opts.ShapeOnly, _ = cmd.Flags().GetBool("shape-only")
	}
	if cmd.Flags().Lookup("live") != nil {
		opts.Live, _ = cmd.Flags().GetBool("live")
	}
	return opts
}

func inspectLogger(opts cli.InspectOptions) *slog.Logger {
	if opts.Debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}
