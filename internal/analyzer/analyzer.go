// Package analyzer enumerates the ways through a tutorial and replays them
// against an engine built on in-memory collaborators.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/internal/runtime"
	"github.com/aretw0/guidepost/pkg/adapters/memory"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/registry"
)

// Path is the sequence of interaction kinds that leads from start to end.
type Path []string

func (p Path) String() string {
	if len(p) == 0 {
		return "(empty)"
	}
	return strings.Join(p, " -> ")
}

// GenerateAcyclicPaths lists every path from start to end that visits no
// step twice, in transition declaration order.
func GenerateAcyclicPaths(g *domain.Graph) []Path {
	start, end := g.Start(), g.End()
	if start == nil || end == nil {
		return nil
	}

	var paths []Path
	visited := make(map[string]bool)
	var current Path

	var walk func(step *domain.Step)
	walk = func(step *domain.Step) {
		visited[step.Name] = true
		defer delete(visited, step.Name)

		if step == end {
			paths = append(paths, append(Path{}, current...))
			return
		}
		for _, t := range step.Transitions() {
			if visited[t.Target.Name] {
				continue
			}
			current = append(current, t.Kind)
			walk(t.Target)
			current = current[:len(current)-1]
		}
	}
	walk(start)

	return paths
}

// Result is the outcome of replaying one path.
type Result struct {
	Path    Path
	Reached string
	Calls   []memory.Call
	Err     error
}

// Option configures Verify.
type Option func(*verifier)

// WithLogger sets the logger handed to every replay engine.
func WithLogger(logger *slog.Logger) Option {
	return func(v *verifier) {
		v.logger = logger
	}
}

type verifier struct {
	logger *slog.Logger
}

// Verify replays every acyclic path on a fresh engine and reports the ones
// that do not reach the end step. The returned error wraps
// domain.ErrPathDidNotTerminate for each failing path.
func Verify(ctx context.Context, g *domain.Graph, opts ...Option) ([]Result, error) {
	v := &verifier{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(v)
	}

	var results []Result
	var errs []error
	for _, path := range GenerateAcyclicPaths(g) {
		res := v.replay(ctx, g, path)
		results = append(results, res)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (v *verifier) replay(ctx context.Context, g *domain.Graph, path Path) Result {
	rec := memory.NewRecorder(localCommands(g)...)
	reg := registry.New(rec, registry.WithLogger(v.logger))
	b := bus.New()
	engine := runtime.NewEngine(g, b, rec, reg, ReplayCapabilities(g, rec, reg),
		runtime.WithLogger(v.logger))

	res := Result{Path: path}
	if err := engine.Start(ctx); err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", domain.ErrPathDidNotTerminate, path, err)
		return res
	}
	for _, kind := range path {
		b.PushKind(kind)
	}
	_, err := engine.Tick(ctx)

	res.Reached = engine.Current()
	res.Calls = rec.Calls()
	switch {
	case err != nil:
		res.Err = fmt.Errorf("%w: %s: %w", domain.ErrPathDidNotTerminate, path, err)
	case !engine.Terminated():
		res.Err = fmt.Errorf("%w: %s stopped at %q", domain.ErrPathDidNotTerminate, path, res.Reached)
	}
	return res
}

// ReplayCapabilities accepts every side effect the graph mentions and routes
// it to rec.
func ReplayCapabilities(g *domain.Graph, rec *memory.Recorder, reg *registry.Registry) *registry.Capabilities {
	caps := registry.NewCapabilities()
	caps.RegisterLocal(rec)

	functions := make(map[string][]string)
	for _, step := range g.Steps() {
		for _, e := range append(append([]domain.Effect{}, step.Setup...), step.Teardown...) {
			if !e.IsLocal() {
				functions[e.Component] = append(functions[e.Component], e.Function)
			}
		}
	}
	for component, fns := range functions {
		caps.RegisterExtension(component, fns, reg)
	}
	return caps
}

func localCommands(g *domain.Graph) []string {
	var names []string
	for _, step := range g.Steps() {
		for _, e := range append(append([]domain.Effect{}, step.Setup...), step.Teardown...) {
			if e.IsLocal() {
				names = append(names, e.Function)
			}
		}
	}
	return names
}
