package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/guidepost/internal/config"
)

// Options contains the command-line settings shared by the commands that
// talk to the desktop.
type Options struct {
	TutorialPath string
	ConfigPath   string
	ReportPath   string // Optional Markdown activity report written when the run stops.

	// Flag overrides, applied after the config file and the environment.
	Scope     []string
	RelayAddr string
	UIURL     string

	Debug  bool
	DryRun bool // Replace every collaborator with in-memory recorders.
	Quiet  bool

	Out io.Writer
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// LoadConfig resolves the configuration from defaults, the config file, the
// environment and finally the flags.
func LoadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	if len(opts.Scope) > 0 {
		cfg.Scope = opts.Scope
	}
	if opts.RelayAddr != "" {
		cfg.RelayAddr = opts.RelayAddr
	}
	if opts.UIURL != "" {
		cfg.UIURL = opts.UIURL
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.LoadCommandsFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}
