package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/guidepost/internal/config"
	"github.com/aretw0/guidepost/internal/presentation/tui"
	httpadapter "github.com/aretw0/guidepost/pkg/adapters/http"
	plog "github.com/aretw0/guidepost/pkg/log"
	"github.com/aretw0/guidepost/pkg/ports"
	"github.com/aretw0/guidepost/pkg/report"
)

// DefaultReportTitle heads reports written by the record command.
const DefaultReportTitle = "User activity"

// Record marks the scope and collects interactions from every watcher and
// the relay until ctx is done. No tutorial is played.
func Record(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) ([]report.Entry, error) {
	rec := report.NewRecorder()
	collab := newCollaborators(cfg, logger, dryRun)

	client := newRedisClient(cfg)
	if client != nil {
		defer client.Close()
	}

	enterScope(ctx, collab.scope, cfg.Scope, logger)
	defer leaveScope(context.WithoutCancel(ctx), collab.scope, cfg.Scope, logger)

	relay := httpadapter.NewServer(rec, httpadapter.WithServerLogger(logger))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var relayErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := relay.Serve(runCtx, cfg.RelayAddr); err != nil {
			relayErr = err
			cancel()
		}
	}()
	wait := runWatchers(runCtx, buildWatchers(cfg, collab.inspector, client, !dryRun, logger), rec, logger)

	<-runCtx.Done()
	wait()
	wg.Wait()

	if relayErr != nil {
		return rec.Entries(), fmt.Errorf("relay stopped: %w", relayErr)
	}
	return rec.Entries(), nil
}

// RunRecord records until interrupted and writes the activity report to
// opts.ReportPath, or renders it on stdout.
func RunRecord(opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger := NewLogger(cfg)
	w := opts.out()

	if !opts.Quiet {
		printSystemMessage(w, "Recording activity in %v. Press Ctrl+C to stop.", cfg.Scope)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	entries, err := Record(sigCtx, cfg, opts.DryRun, logger)
	if err != nil {
		return err
	}

	markdown := report.Markdown(DefaultReportTitle, entries)
	if opts.ReportPath == "" {
		return tui.Print(w, markdown)
	}
	if err := os.WriteFile(opts.ReportPath, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if !opts.Quiet {
		printSystemMessage(w, "Recorded %d interactions to %s.", len(entries), opts.ReportPath)
	}
	return nil
}

func enterScope(ctx context.Context, scope ports.ScopeManager, vms []string, logger *slog.Logger) {
	for _, vm := range vms {
		if err := scope.Enter(ctx, vm); err != nil {
			logger.WarnContext(ctx, "failed to mark qube", plog.Resource(vm), plog.Error(err))
		}
	}
}

func leaveScope(ctx context.Context, scope ports.ScopeManager, vms []string, logger *slog.Logger) {
	for _, vm := range vms {
		if err := scope.Leave(ctx, vm); err != nil {
			logger.WarnContext(ctx, "failed to unmark qube", plog.Resource(vm), plog.Error(err))
		}
	}
}
