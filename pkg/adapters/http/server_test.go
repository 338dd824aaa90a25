package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
)

func TestRegisterInteraction(t *testing.T) {
	b := bus.New()
	handler := NewServer(b).Handler()

	req := httptest.NewRequest(http.MethodPost, "/interactions",
		strings.NewReader(`{"kind":"tutorial:next","subject":"modal"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []domain.Interaction{domain.NewInteraction(domain.KindTutorialNext, "modal", "")}, b.Drain())
}

func TestRegisterInteraction_Rejects(t *testing.T) {
	b := bus.New()
	handler := NewServer(b).Handler()

	for _, body := range []string{`{"subject":"x"}`, `not json`} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Zero(t, b.Len())
}

func TestStatusHealthAndMetrics(t *testing.T) {
	state := domain.State{RunID: "r1", CurrentStep: "start", Status: domain.StatusActive}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("guidepost_up 1\n"))
	})
	handler := NewServer(bus.New(),
		WithStatus(func() domain.State { return state }),
		WithMetrics(metrics)).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, state, got)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "guidepost_up 1")
}

func TestStatus_NoRun(t *testing.T) {
	w := httptest.NewRecorder()
	NewServer(bus.New()).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	srv := NewServer(bus.New())
	handler := srv.Handler()

	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx))
	}()

	require.Eventually(t, func() bool { return srv.Streams.Len() == 1 }, time.Second, 5*time.Millisecond)
	srv.Hooks().OnStepEnter(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Type: domain.EventStepEnter, RunID: "r1"},
		Step:      "welcome",
	})

	// Give the handler time to write before stopping it.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := w.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"step":"welcome"`)
	assert.Zero(t, srv.Streams.Len())
}

func TestServeListener(t *testing.T) {
	b := bus.New()
	srv := NewServer(b)
	ln, err := netListen(t)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	reg, err := NewRegistrar("http://" + ln.Addr().String())
	require.NoError(t, err)
	reg.Register(domain.KindTutorialExit, "", "")
	reg.Wait()

	assert.Equal(t, 1, b.Len())
	cancel()
	require.NoError(t, <-done)
}

func TestFetchState(t *testing.T) {
	state := domain.State{RunID: "run-1", CurrentStep: "welcome", Status: domain.StatusActive}
	srv := NewServer(bus.New(), WithStatus(func() domain.State { return state }))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	got, err := FetchState(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "welcome", got.CurrentStep)
	assert.Equal(t, domain.StatusActive, got.Status)

	idle := httptest.NewServer(NewServer(bus.New()).Handler())
	t.Cleanup(idle.Close)
	_, err = FetchState(context.Background(), idle.URL)
	assert.ErrorContains(t, err, "503")
}
