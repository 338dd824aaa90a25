package guidepost

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/guidepost/internal/compiler"
	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/internal/runtime"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/ports"
	"github.com/aretw0/guidepost/pkg/registry"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point for the guidepost library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	bus      *bus.Bus
	graph    *domain.Graph
	registry *registry.Registry
	caps     *registry.Capabilities

	shell       ports.ShellRunner
	extensions  map[string][]string
	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	callTimeout time.Duration
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGraph plays an already built graph instead of loading a file.
func WithGraph(g *domain.Graph) Option {
	return func(e *Engine) {
		e.graph = g
	}
}

// WithShellRunner enables "dom0" side effects through runner.
func WithShellRunner(runner ports.ShellRunner) Option {
	return func(e *Engine) {
		e.shell = runner
	}
}

// WithExtension declares an extension and the functions tutorials may call on it.
func WithExtension(name string, functions ...string) Option {
	return func(e *Engine) {
		e.extensions[name] = append(e.extensions[name], functions...)
	}
}

// WithTickInterval sets how often Run polls the bus when nothing signals it.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTickInterval(d))
	}
}

// WithCallTimeout bounds every call to the UI relay and the extensions.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.callTimeout = d
	}
}

// New loads the tutorial at path and prepares a run that shows its UI through
// ui and reaches extensions through client.
// If WithGraph is provided, path can be empty and nothing is read.
func New(path string, ui ports.UINotifier, client ports.ExtensionClient, opts ...Option) (*Engine, error) {
	eng := &Engine{
		bus:         bus.New(),
		extensions:  make(map[string][]string),
		logger:      logging.NewNop(),
		callTimeout: runtime.DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.registry = registry.New(client,
		registry.WithCallTimeout(eng.callTimeout),
		registry.WithLogger(eng.logger),
	)
	eng.caps = registry.NewCapabilities()
	if eng.shell != nil {
		eng.caps.RegisterLocal(eng.shell)
	}
	for name, functions := range eng.extensions {
		eng.caps.RegisterExtension(name, functions, eng.registry)
	}

	if eng.graph == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no graph is provided")
		}
		loader := compiler.NewLoader(compiler.WithCapabilities(eng.caps), compiler.WithLogger(eng.logger))
		def, err := loader.LoadFile(path)
		if err != nil {
			return nil, err
		}
		eng.graph = def.Graph
		eng.Name = def.Name
	} else if path != "" {
		eng.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	runtimeOpts := append([]runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithCallTimeout(eng.callTimeout),
		runtime.WithTutorialName(eng.Name),
	}, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.graph, eng.bus, ui, eng.registry, eng.caps, runtimeOpts...)
	return eng, nil
}

// Register queues an interaction. It never blocks and is safe from any
// goroutine, so the engine can be handed out as a ports.InteractionRegistrar.
func (e *Engine) Register(kind, subject, arguments string) {
	e.bus.Push(domain.NewInteraction(kind, subject, arguments))
}

// Sink is where watchers deliver interactions.
func (e *Engine) Sink() bus.Sink {
	return e.bus
}

// Start enters the start step.
func (e *Engine) Start(ctx context.Context) error {
	return e.runtime.Start(ctx)
}

// Tick applies every queued interaction.
func (e *Engine) Tick(ctx context.Context) (int, error) {
	return e.runtime.Tick(ctx)
}

// Run plays the tutorial until the end step, a failure or ctx cancellation.
func (e *Engine) Run(ctx context.Context) error {
	return e.runtime.Run(ctx)
}

// State returns a snapshot of the run. Safe from any goroutine.
func (e *Engine) State() domain.State {
	return e.runtime.State()
}

// Graph returns the tutorial being played.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}
