// Package redis connects guidepost to a Redis server: it follows the admin
// event channel and guards against two tutorials running at once.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	plog "github.com/aretw0/guidepost/pkg/log"
)

// DefaultChannel is where admin events are published.
const DefaultChannel = "guidepost:admin-events"

// Event is an administrative event as published on the channel:
//
//	{"category": "domain", "subject": "work", "event": "domain-start", "args": "..."}
type Event struct {
	Category  string `json:"category"`
	Subject   string `json:"subject,omitempty"`
	Name      string `json:"event"`
	Arguments string `json:"args,omitempty"`
}

// ParseEvent decodes a JSON payload. Category and event are required.
func ParseEvent(payload string) (Event, error) {
	if !gjson.Valid(payload) {
		return Event{}, fmt.Errorf("%w: payload is not JSON", domain.ErrParseMismatch)
	}
	fields := gjson.GetMany(payload, "category", "subject", "event", "args")
	ev := Event{
		Category:  fields[0].String(),
		Subject:   fields[1].String(),
		Name:      fields[2].String(),
		Arguments: fields[3].String(),
	}
	if ev.Category == "" || ev.Name == "" {
		return Event{}, fmt.Errorf("%w: admin event without category or event", domain.ErrParseMismatch)
	}
	return ev, nil
}

// Interaction keys the event as "<category>:<subject>:<event>".
func (e Event) Interaction() domain.Interaction {
	return domain.NewInteraction(e.Category+":"+e.Subject+":"+e.Name, e.Subject, e.Arguments)
}

// Publish sends an admin event on channel.
func Publish(ctx context.Context, client *backend.Client, channel string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.Publish(ctx, channel, payload).Err()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithChannel sets the pub/sub channel to subscribe to.
func WithChannel(channel string) Option {
	return func(w *Watcher) {
		w.channel = channel
	}
}

// WithScope restricts forwarded events to the given subjects. Without it
// every event is forwarded.
func WithScope(resources ...string) Option {
	return func(w *Watcher) {
		w.scope = make(map[string]struct{}, len(resources))
		for _, r := range resources {
			w.scope[r] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher forwards admin events published on a Redis channel.
type Watcher struct {
	client  *backend.Client
	channel string
	scope   map[string]struct{}
	logger  *slog.Logger
}

// NewWatcher creates a watcher on an existing client.
func NewWatcher(client *backend.Client, opts ...Option) *Watcher {
	w := &Watcher{
		client:  client,
		channel: DefaultChannel,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(plog.Watcher(w.Name()))
	return w
}

// Name identifies the watcher in logs.
func (w *Watcher) Name() string {
	return "admin:" + w.channel
}

// Run subscribes and forwards events until ctx is done.
func (w *Watcher) Run(ctx context.Context, sink bus.Sink) error {
	ps := w.client.Subscribe(ctx, w.channel)
	defer ps.Close()

	// Wait for the subscription to be confirmed so nothing published after
	// Run starts is missed.
	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribing to %s: %w", w.channel, err)
	}
	w.logger.Info("subscribed")

	messages := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			w.HandlePayload(msg.Payload, sink)
		}
	}
}

// HandlePayload forwards a single published payload.
func (w *Watcher) HandlePayload(payload string, sink bus.Sink) {
	ev, err := ParseEvent(payload)
	if err != nil {
		w.logger.Debug("ignoring payload", plog.Error(err))
		return
	}
	if w.scope != nil {
		if _, ok := w.scope[ev.Subject]; !ok {
			return
		}
	}
	in := ev.Interaction()
	w.logger.Debug("admin event", plog.Interaction(in))
	sink.Push(in)
}
