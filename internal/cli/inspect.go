package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/guidepost/internal/analyzer"
	"github.com/aretw0/guidepost/internal/compiler"
	"github.com/aretw0/guidepost/internal/presentation/graph"
	"github.com/aretw0/guidepost/internal/presentation/tui"
	"github.com/aretw0/guidepost/internal/validator"
	httpadapter "github.com/aretw0/guidepost/pkg/adapters/http"
	"github.com/aretw0/guidepost/pkg/registry"
)

// replayTimeout bounds the replay of all paths.
const replayTimeout = time.Minute

// InspectOptions configures the offline commands (validate, paths, graph).
type InspectOptions struct {
	Options

	// ShapeOnly skips resolving side effects against the configured
	// extensions and commands.
	ShapeOnly bool
	// Replay plays every acyclic path on an in-memory engine.
	Replay bool
	// Live overlays the step of the run served by the relay.
	Live bool
}

// loadForInspection compiles the tutorial, resolving side effects against
// the configuration unless ShapeOnly is set.
func loadForInspection(opts InspectOptions, logger *slog.Logger) (*compiler.Definition, error) {
	if opts.ShapeOnly {
		return loadTutorial(opts.TutorialPath, nil, logger)
	}
	cfg, err := LoadConfig(opts.Options)
	if err != nil {
		return nil, err
	}
	collab := newCollaborators(cfg, logger, true)
	reg := registry.New(collab.extensions)
	return loadTutorial(opts.TutorialPath, buildCapabilities(cfg, collab.shell, reg), logger)
}

// Validate loads the tutorial, reports integrity problems and, with Replay,
// replays every path. Warnings are printed but do not fail.
func Validate(ctx context.Context, opts InspectOptions, logger *slog.Logger) error {
	w := opts.out()
	def, err := loadForInspection(opts, logger)
	if err != nil {
		return err
	}

	rep := validator.Validate(def.Graph)
	fmt.Fprint(w, rep.String())
	if !rep.Valid() {
		return rep.Err()
	}

	if opts.Replay {
		ctx, cancel := context.WithTimeout(ctx, replayTimeout)
		defer cancel()
		results, err := analyzer.Verify(ctx, def.Graph, analyzer.WithLogger(logger))
		for _, res := range results {
			status := "ok"
			if res.Err != nil {
				status = "FAIL"
			}
			fmt.Fprintf(w, "replay  %-4s %s\n", status, res.Path)
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%s is valid (%d steps).\n", def.Name, def.Graph.Len())
	return nil
}

// PathsMarkdown lists every acyclic way through the tutorial.
func PathsMarkdown(def *compiler.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Paths through %s\n\n", def.Name)
	paths := analyzer.GenerateAcyclicPaths(def.Graph)
	if len(paths) == 0 {
		b.WriteString("_The end step cannot be reached._\n")
	}
	for i, path := range paths {
		fmt.Fprintf(&b, "%d. ", i)
		for j, kind := range path {
			if j > 0 {
				b.WriteString(" → ")
			}
			fmt.Fprintf(&b, "`%s`", kind)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Paths prints the acyclic paths, rendered when stdout is a terminal.
func Paths(opts InspectOptions, logger *slog.Logger) error {
	def, err := loadForInspection(opts, logger)
	if err != nil {
		return err
	}
	return tui.Print(opts.out(), PathsMarkdown(def))
}

// Graph prints the tutorial as a Mermaid flowchart. With Live the current
// step of the running controller is highlighted.
func Graph(ctx context.Context, opts InspectOptions, logger *slog.Logger) error {
	opts.ShapeOnly = true
	def, err := loadForInspection(opts, logger)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if opts.Live {
		cfg, err := LoadConfig(opts.Options)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
		defer cancel()
		state, err := httpadapter.FetchState(ctx, "http://"+cfg.RelayAddr)
		if err != nil {
			return fmt.Errorf("fetching live state: %w", err)
		}
		overlay = &graph.Overlay{CurrentStep: state.CurrentStep}
	}

	_, err = io.WriteString(opts.out(), graph.GenerateMermaid(def.Graph, overlay))
	return err
}
