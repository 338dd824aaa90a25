package ports

import (
	"context"

	"github.com/aretw0/guidepost/pkg/bus"
)

// Watcher observes an external source and turns what it sees into interactions.
//
// Run blocks until ctx is done and returns nil in that case. Lines or records
// that do not describe an interaction are skipped, never returned as errors.
type Watcher interface {
	Name() string
	Run(ctx context.Context, sink bus.Sink) error
}
