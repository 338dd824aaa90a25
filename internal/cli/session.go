package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/guidepost"
	"github.com/aretw0/guidepost/internal/compiler"
	"github.com/aretw0/guidepost/internal/config"
	"github.com/aretw0/guidepost/internal/presentation/tui"
	"github.com/aretw0/guidepost/internal/runtime"
	httpadapter "github.com/aretw0/guidepost/pkg/adapters/http"
	"github.com/aretw0/guidepost/pkg/adapters/memory"
	"github.com/aretw0/guidepost/pkg/adapters/redis"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	plog "github.com/aretw0/guidepost/pkg/log"
	"github.com/aretw0/guidepost/pkg/observability"
	"github.com/aretw0/guidepost/pkg/ports"
	"github.com/aretw0/guidepost/pkg/registry"
	"github.com/aretw0/guidepost/pkg/report"
)

// SessionLockTTL bounds how long a crashed controller keeps others out.
const SessionLockTTL = 2 * time.Hour

// Session is one tutorial run on the desktop: the scope is marked, the
// watchers and the relay feed the bus and the engine consumes it.
type Session struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	def      *compiler.Definition
	bus      *bus.Bus
	sink     bus.Sink
	engine   *runtime.Engine
	relay    *httpadapter.Server
	metrics  *observability.Metrics
	collab   collaborators
	watchers []ports.Watcher
	redis    *backend.Client
	recorder *report.Recorder

	listener net.Listener
}

// NewSession loads the tutorial and wires every component of a run.
func NewSession(cfg *config.Config, opts Options, logger *slog.Logger) (*Session, error) {
	s := &Session{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		bus:     bus.New(),
		metrics: observability.NewMetrics(),
		collab:  newCollaborators(cfg, logger, opts.DryRun),
		redis:   newRedisClient(cfg),
	}

	reg := registry.New(s.collab.extensions,
		registry.WithCallTimeout(cfg.CallTimeout),
		registry.WithLogger(logger),
	)
	caps := buildCapabilities(cfg, s.collab.shell, reg)

	def, err := loadTutorial(opts.TutorialPath, caps, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	s.def = def

	s.sink = s.bus
	if opts.ReportPath != "" {
		s.recorder = report.NewRecorder()
		s.sink = bus.SinkFunc(func(in domain.Interaction) {
			s.recorder.Push(in)
			s.bus.Push(in)
		})
	}

	s.relay = httpadapter.NewServer(s.sink,
		httpadapter.WithStatus(func() domain.State { return s.engine.State() }),
		httpadapter.WithMetrics(s.metrics.Handler()),
		httpadapter.WithServerLogger(logger),
	)

	hooks := observability.LoggingHooks(logger).
		Merge(s.metrics.Hooks()).
		Merge(s.relay.Hooks())
	s.engine = runtime.NewEngine(def.Graph, s.bus, s.collab.ui, reg, caps,
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithTickInterval(cfg.TickInterval),
		runtime.WithCallTimeout(cfg.CallTimeout),
		runtime.WithTutorialName(def.Name),
	)
	s.logger = logger.With(plog.RunID(s.engine.RunID()))

	s.watchers = buildWatchers(cfg, s.collab.inspector, s.redis, !opts.DryRun, s.logger)
	return s, nil
}

// Definition returns the loaded tutorial.
func (s *Session) Definition() *compiler.Definition {
	return s.def
}

// Engine returns the engine driving the run.
func (s *Session) Engine() *runtime.Engine {
	return s.engine
}

// Sink is where interactions of this run are delivered.
func (s *Session) Sink() bus.Sink {
	return s.sink
}

// Recorder returns the in-memory collaborators in dry-run mode, or nil.
func (s *Session) Recorder() *memory.Recorder {
	return s.collab.recorder
}

// Listen binds the relay address. Run calls it when it was not called before.
func (s *Session) Listen() (net.Addr, error) {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.cfg.RelayAddr)
		if err != nil {
			return nil, fmt.Errorf("relay listen on %s: %w", s.cfg.RelayAddr, err)
		}
		s.listener = ln
	}
	return s.listener.Addr(), nil
}

// Run plays the tutorial until the end step, a failure or ctx cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	if _, err := s.Listen(); err != nil {
		return err
	}

	if s.redis != nil {
		host, _ := os.Hostname()
		release, err := redis.NewSessionLock(s.redis, s.cfg.Redis.Prefix).Acquire(ctx, host, SessionLockTTL)
		if err != nil {
			_ = s.listener.Close()
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release session lock", plog.Error(err))
			}
		}()
	}

	enterScope(ctx, s.collab.scope, s.cfg.Scope, s.logger)
	defer leaveScope(context.WithoutCancel(ctx), s.collab.scope, s.cfg.Scope, s.logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var relayErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.relay.ServeListener(runCtx, s.listener); err != nil {
			relayErr = err
			cancel()
		}
	}()
	waitWatchers := runWatchers(runCtx, s.watchers, s.sink, s.logger)

	err := s.engine.Run(runCtx)

	cancel()
	waitWatchers()
	wg.Wait()

	if relayErr != nil && ctx.Err() == nil {
		err = errors.Join(err, fmt.Errorf("relay stopped: %w", relayErr))
	}
	if werr := s.writeReport(); werr != nil {
		err = errors.Join(err, werr)
	}
	return err
}

func (s *Session) writeReport() error {
	if s.recorder == nil {
		return nil
	}
	f, err := os.Create(s.opts.ReportPath)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	defer f.Close()
	return report.Write(f, s.def.Name, s.recorder.Entries())
}

func (s *Session) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

// RunSession loads the configuration and plays one tutorial.
func RunSession(opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger := NewLogger(cfg)
	w := opts.out()

	session, err := NewSession(cfg, opts, logger)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		tui.PrintBanner(w, guidepost.Version)
		printSystemMessage(w, "Running '%s' (%d steps, scope %v).",
			session.Definition().Name, session.Definition().Graph.Len(), cfg.Scope)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	runErr := session.Run(sigCtx)
	if !opts.Quiet {
		logCompletion(w, session.Engine().State(), runErr, sigCtx.Signal())
	}
	return handleExecutionError(runErr)
}
