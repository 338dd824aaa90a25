package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/guidepost/internal/compiler"
	"github.com/aretw0/guidepost/internal/config"
	httpadapter "github.com/aretw0/guidepost/pkg/adapters/http"
	"github.com/aretw0/guidepost/pkg/adapters/memory"
	"github.com/aretw0/guidepost/pkg/adapters/process"
	"github.com/aretw0/guidepost/pkg/ports"
	"github.com/aretw0/guidepost/pkg/registry"
)

// collaborators are the processes a run talks to.
type collaborators struct {
	ui         ports.UINotifier
	extensions ports.ExtensionClient
	shell      ports.ShellRunner
	scope      ports.ScopeManager
	inspector  ports.WindowInspector

	// Set in dry-run mode.
	recorder *memory.Recorder
}

func newCollaborators(cfg *config.Config, logger *slog.Logger, dryRun bool) collaborators {
	if dryRun {
		commands := make([]string, 0, len(cfg.Commands)+1)
		for name := range cfg.CommandMap() {
			commands = append(commands, name)
		}
		if cfg.AllowInlineShell {
			commands = append(commands, process.InlineCommand)
		}
		slices.Sort(commands)

		rec := memory.NewRecorder(commands...)
		host := memory.NewHost()
		return collaborators{
			ui:         rec,
			extensions: rec,
			shell:      rec,
			scope:      host,
			inspector:  host,
			recorder:   rec,
		}
	}

	clientOpts := []httpadapter.ClientOption{httpadapter.WithClientLogger(logger)}
	hostOpts := []process.HostOption{process.WithHostLogger(logger)}
	return collaborators{
		ui:         httpadapter.NewNotifier(cfg.UIURL, clientOpts...),
		extensions: httpadapter.NewExtensionClient(cfg.ExtensionAddresses(), clientOpts...),
		shell: process.NewRunner(
			process.WithCommands(cfg.CommandMap()),
			process.WithInlineExecution(cfg.AllowInlineShell),
			process.WithLogger(logger),
		),
		scope:     process.NewScopeManager(hostOpts...),
		inspector: process.NewXInspector(hostOpts...),
	}
}

// buildCapabilities declares what side effects a tutorial may use: the local
// commands plus the functions of every configured extension.
func buildCapabilities(cfg *config.Config, shell ports.ShellRunner, reg *registry.Registry) *registry.Capabilities {
	caps := registry.NewCapabilities()
	caps.RegisterLocal(shell)
	for _, ext := range cfg.Extensions {
		caps.RegisterExtension(ext.Name, ext.Functions, reg)
	}
	return caps
}

// loadTutorial compiles the tutorial. With caps, every side effect must
// resolve; without, only the shape is checked.
func loadTutorial(path string, caps *registry.Capabilities, logger *slog.Logger) (*compiler.Definition, error) {
	if path == "" {
		return nil, fmt.Errorf("no tutorial given")
	}
	opts := []compiler.Option{compiler.WithLogger(logger)}
	if caps != nil {
		opts = append(opts, compiler.WithCapabilities(caps))
	}
	return compiler.NewLoader(opts...).LoadFile(path)
}
