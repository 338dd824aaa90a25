package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WatcherFixture drives the source observed by a watcher under test.
type WatcherFixture struct {
	Watcher Watcher
	// Feed makes the source produce something that must become want.
	Feed func(t *testing.T)
	Want domain.Interaction
	// Noise makes the source produce something that must be ignored. Optional.
	Noise func(t *testing.T)
}

// RunWatcherContract verifies that a Watcher implementation forwards what it
// observes, ignores unrelated input and stops when its context is cancelled.
func RunWatcherContract(t *testing.T, newFixture func(t *testing.T) WatcherFixture) {
	t.Run("Forwards Interaction", func(t *testing.T) {
		fx := newFixture(t)
		sink := &collectingSink{}
		stop := startWatcher(t, fx.Watcher, sink)
		defer stop()

		if fx.Noise != nil {
			fx.Noise(t)
		}
		fx.Feed(t)

		require.Eventually(t, func() bool { return sink.len() > 0 }, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []domain.Interaction{fx.Want}, sink.all())
	})

	t.Run("Stops On Cancel", func(t *testing.T) {
		fx := newFixture(t)
		stop := startWatcher(t, fx.Watcher, &collectingSink{})
		stop()
	})

	t.Run("Has Name", func(t *testing.T) {
		assert.NotEmpty(t, newFixture(t).Watcher.Name())
	})
}

func startWatcher(t *testing.T, w Watcher, sink bus.Sink) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, sink) }()

	// Give the watcher a moment to attach to its source.
	time.Sleep(50 * time.Millisecond)

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err, "watcher %s should return nil on cancel", w.Name())
		case <-time.After(5 * time.Second):
			t.Errorf("watcher %s did not stop", w.Name())
		}
	}
}

type collectingSink struct {
	mu  sync.Mutex
	got []domain.Interaction
}

func (s *collectingSink) Push(in domain.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, in)
}

func (s *collectingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func (s *collectingSink) all() []domain.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Interaction(nil), s.got...)
}
