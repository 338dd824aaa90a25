// Package bus implements the interaction bus shared by watchers and the engine.
//
// Any number of producers push interactions; a single consumer drains them in
// global FIFO order. Pushing never blocks.
package bus

import (
	"sync"

	"github.com/aretw0/guidepost/pkg/domain"
)

// Sink is the producer side of the bus.
type Sink interface {
	Push(domain.Interaction)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(domain.Interaction)

// Push calls f(in).
func (f SinkFunc) Push(in domain.Interaction) { f(in) }

// Bus is an unbounded, thread-safe FIFO of interactions.
type Bus struct {
	mu    sync.Mutex
	queue []domain.Interaction
	ready chan struct{}
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{ready: make(chan struct{}, 1)}
}

// Push appends an interaction. It never blocks and never fails.
func (b *Bus) Push(in domain.Interaction) {
	b.mu.Lock()
	b.queue = append(b.queue, in)
	wasEmpty := len(b.queue) == 1
	b.mu.Unlock()

	if wasEmpty {
		select {
		case b.ready <- struct{}{}:
		default:
		}
	}
}

// PushKind pushes an interaction carrying only a kind.
// Joined "kind:subject:args" strings are kept verbatim as the kind, so a
// transition must name them in full.
func (b *Bus) PushKind(kind string) {
	b.Push(domain.NewInteraction(kind, "", ""))
}

// Drain removes and returns everything queued at call time, oldest first.
// Interactions pushed while the caller processes the result wait for the next Drain.
func (b *Bus) Drain() []domain.Interaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	batch := b.queue
	b.queue = nil
	return batch
}

// Ready is signalled when the bus goes from empty to non-empty.
// A signal may be stale; callers must tolerate an empty Drain.
func (b *Bus) Ready() <-chan struct{} {
	return b.ready
}

// Len reports the number of queued interactions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
