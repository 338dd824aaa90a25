package bus_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBus_FIFO(t *testing.T) {
	b := bus.New()
	b.PushKind("a")
	b.Push(domain.NewInteraction("b", "work", ""))
	b.PushKind("c:d:e")

	assert.Equal(t, 3, b.Len())
	got := b.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Kind)
	assert.Equal(t, "work", got[1].Subject)
	assert.Equal(t, "c:d:e", got[2].Kind)

	assert.Empty(t, b.Drain())
	assert.Zero(t, b.Len())
}

func TestBus_DrainIsSnapshot(t *testing.T) {
	b := bus.New()
	b.PushKind("first")

	batch := b.Drain()
	b.PushKind("late")

	assert.Len(t, batch, 1)
	assert.Equal(t, []domain.Interaction{{Kind: "late"}}, b.Drain())
}

func TestBus_Ready(t *testing.T) {
	b := bus.New()

	select {
	case <-b.Ready():
		t.Fatal("ready before any push")
	default:
	}

	b.PushKind("x")
	b.PushKind("y")

	select {
	case <-b.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready not signalled")
	}

	// Only the empty -> non-empty edge signals.
	select {
	case <-b.Ready():
		t.Fatal("signalled twice for one edge")
	default:
	}
}

func TestBus_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 200
	b := bus.New()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				b.PushKind(fmt.Sprintf("p%d-%d", p, i))
			}
		}()
	}
	wg.Wait()

	got := b.Drain()
	require.Len(t, got, producers*perProducer)

	// Per-producer order survives interleaving.
	next := make(map[string]int)
	for _, in := range got {
		var p, i int
		_, err := fmt.Sscanf(in.Kind, "p%d-%d", &p, &i)
		require.NoError(t, err)
		key := fmt.Sprint(p)
		assert.Equal(t, next[key], i)
		next[key] = i + 1
	}
}

func TestSinkFunc(t *testing.T) {
	var got []domain.Interaction
	var sink bus.Sink = bus.SinkFunc(func(in domain.Interaction) { got = append(got, in) })
	sink.Push(domain.NewInteraction("k", "", ""))
	assert.Len(t, got, 1)
}
