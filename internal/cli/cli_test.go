package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/guidepost/internal/config"
	"github.com/aretw0/guidepost/internal/logging"
	httpadapter "github.com/aretw0/guidepost/pkg/adapters/http"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/ports"
	"github.com/aretw0/guidepost/pkg/registry"
)

const tutorialPath = "testdata/onboarding.yaml"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Scope = []string{"work"}
	cfg.RelayAddr = "127.0.0.1:0"
	cfg.AllowInlineShell = true
	cfg.Extensions = []config.ExtensionConfig{
		{Name: "qui-domains", Address: "http://127.0.0.1:1", Functions: []string{"highlight"}},
	}
	return cfg
}

func TestLoadTutorial_ResolvesCapabilities(t *testing.T) {
	logger := logging.NewNop()

	cfg := testConfig()
	collab := newCollaborators(cfg, logger, true)
	caps := buildCapabilities(cfg, collab.shell, registry.New(collab.extensions))
	def, err := loadTutorial(tutorialPath, caps, logger)
	require.NoError(t, err)
	assert.Equal(t, "onboarding", def.Name)
	assert.Equal(t, []string{"dom0", "qui-domains"}, caps.Components())

	cfg.Extensions = nil
	collab = newCollaborators(cfg, logger, true)
	_, err = loadTutorial(tutorialPath, buildCapabilities(cfg, collab.shell, registry.New(collab.extensions)), logger)
	assert.ErrorIs(t, err, domain.ErrUnrecognizedSideEffectComponent)

	_, err = loadTutorial(tutorialPath, nil, logger)
	assert.NoError(t, err, "shape-only load ignores capabilities")
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guidepost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scope: [personal]\nrelay_addr: 127.0.0.1:9000\n"), 0o644))

	cfg, err := LoadConfig(Options{ConfigPath: path, Scope: []string{"work"}, Debug: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, cfg.Scope)
	assert.Equal(t, "127.0.0.1:9000", cfg.RelayAddr)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = LoadConfig(Options{ConfigPath: path, Scope: []string{"work", "work"}})
	assert.ErrorIs(t, err, config.ErrInvalidScope)
}

func TestLoadConfig_CommandsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "commands.json"),
		[]byte(`{"commands":[{"name":"open_settings","command":"qubes-global-config"}]}`), 0o644))
	path := filepath.Join(dir, "guidepost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands_file: commands.json\n"), 0o644))

	cfg, err := LoadConfig(Options{ConfigPath: path})
	require.NoError(t, err)

	c := newCollaborators(cfg, logging.NewNop(), true)
	assert.Equal(t, []string{"open_settings"}, c.shell.Commands())
}

func TestBuildWatchers(t *testing.T) {
	cfg := testConfig()
	cfg.Scope = []string{"work", "vault"}
	collab := newCollaborators(cfg, logging.NewNop(), true)

	var names []string
	for _, w := range buildWatchers(cfg, collab.inspector, nil, true, logging.NewNop()) {
		names = append(names, w.Name())
	}
	assert.Len(t, names, 3, "one window watcher per qube plus the journal")
	assert.Contains(t, names, "journal")

	assert.Empty(t, buildWatchers(cfg, collab.inspector, nil, false, logging.NewNop()))
}

type stubWatcher struct {
	name string
	err  error
}

func (w stubWatcher) Name() string { return w.name }

func (w stubWatcher) Run(ctx context.Context, sink bus.Sink) error {
	if w.err != nil {
		return w.err
	}
	sink.Push(domain.NewInteraction(w.name, "", ""))
	<-ctx.Done()
	return nil
}

func TestRunWatchers(t *testing.T) {
	b := bus.New()
	ctx, cancel := context.WithCancel(context.Background())
	wait := runWatchers(ctx, []ports.Watcher{
		stubWatcher{name: "a"},
		stubWatcher{name: "broken", err: assert.AnError},
		stubWatcher{name: "b"},
	}, b, logging.NewNop())

	require.Eventually(t, func() bool { return b.Len() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	wait()
}

func TestSession_DryRun(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.md")
	session, err := NewSession(testConfig(), Options{
		TutorialPath: tutorialPath,
		ReportPath:   reportPath,
		DryRun:       true,
	}, logging.NewNop())
	require.NoError(t, err)

	addr, err := session.Listen()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()

	reg, err := httpadapter.NewRegistrar("http://" + addr.String())
	require.NoError(t, err)
	for _, kind := range []string{domain.KindTutorialNext, "noise", domain.KindCreateWindow, domain.KindCloseWindow} {
		reg.Register(kind, "work", "")
		reg.Wait()
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}

	state := session.Engine().State()
	assert.Equal(t, domain.StatusTerminated, state.Status)
	assert.Equal(t, 1, state.Stats.Discarded)
	assert.Equal(t, []string{
		"ui.setup_ui",
		"ui.teardown_ui",
		"ui.setup_ui",
		"qui-domains.enable_tutorial",
		"qui-domains.highlight",
		"dom0.shell",
		"ui.teardown_ui",
		"ui.setup_ui",
		"ui.teardown_ui",
		"qui-domains.disable_tutorial",
	}, session.Recorder().Names())

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# onboarding")
	assert.Contains(t, string(data), "Closed a window in qube `work`")
}

func TestSession_Cancelled(t *testing.T) {
	session, err := NewSession(testConfig(), Options{TutorialPath: tutorialPath, DryRun: true}, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	require.Eventually(t, func() bool { return session.Engine().Current() == domain.StartStep },
		time.Second, 5*time.Millisecond)
	cancel()

	err = <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, handleExecutionError(err))
}

func TestRecord(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	entries, err := Record(ctx, cfg, true, logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInspect(t *testing.T) {
	var buf bytes.Buffer
	opts := InspectOptions{Options: Options{TutorialPath: tutorialPath, Out: &buf}, ShapeOnly: true, Replay: true}

	require.NoError(t, Validate(context.Background(), opts, logging.NewNop()))
	assert.Contains(t, buf.String(), "replay  ok")
	assert.Contains(t, buf.String(), "onboarding is valid (4 steps).")

	buf.Reset()
	require.NoError(t, Paths(opts, logging.NewNop()))
	assert.Contains(t, buf.String(), "0. `tutorial:next` → `create-window` → `close-window`")
	assert.Contains(t, buf.String(), "1. `tutorial:next` → `tutorial:exit`")

	buf.Reset()
	require.NoError(t, Graph(context.Background(), opts, logging.NewNop()))
	assert.Contains(t, buf.String(), `start -- "tutorial:next" --> open_work`)
}
