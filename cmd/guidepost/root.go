package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/guidepost/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "guidepost",
	Short: "Guidepost walks users through interactive desktop tutorials",
	Long: `Guidepost plays step-by-step tutorials: it shows UI directives, runs side
effects and advances when the user does what a step asks for.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the controller configuration (YAML)")
	rootCmd.PersistentFlags().StringSlice("scope", nil, "Qubes the tutorial observes (overrides the configuration)")
	rootCmd.PersistentFlags().String("relay", "", "Address the interaction relay listens on")
	rootCmd.PersistentFlags().String("ui", "", "Base URL of the UI relay")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print command output")
}

// optionsFromFlags collects the shared flags. The first positional argument,
// if any, is the tutorial.
func optionsFromFlags(cmd *cobra.Command, args []string) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{Out: cmd.OutOrStdout()}
	if len(args) > 0 {
		opts.TutorialPath = args[0]
	}
	opts.ConfigPath, _ = flags.GetString("config")
	opts.Scope, _ = flags.GetStringSlice("scope")
	opts.RelayAddr, _ = flags.GetString("relay")
	opts.UIURL, _ = flags.GetString("ui")
	opts.Debug, _ = flags.GetBool("debug")
	opts.Quiet, _ = flags.GetBool("quiet")
	if flags.Lookup("dry-run") != nil {
		opts.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Lookup("report") != nil {
		opts.ReportPath, _ = flags.GetString("report")
	}
	return opts
}
