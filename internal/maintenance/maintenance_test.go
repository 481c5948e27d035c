package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
	called  chan struct{}
}

func newFakePruner() *fakePruner {
	return &fakePruner{called: make(chan struct{}, 16)}
}

func (f *fakePruner) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, olderThan)
	f.mu.Unlock()
	f.called <- struct{}{}
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartDisabledWithoutMaxAge(t *testing.T) {
	pruner := newFakePruner()

	done := make(chan struct{})
	go func() {
		Start(context.Background(), pruner, DefaultConfig(0), discardLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return for a disabled retention config")
	}
	assert.Empty(t, pruner.cutoffs)
}

func TestStartSweepsOnEachTick(t *testing.T) {
	pruner := newFakePruner()
	cfg := Config{SweepInterval: 10 * time.Millisecond, RequestLogMaxAge: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, pruner, cfg, discardLogger())
		close(done)
	}()

	select {
	case <-pruner.called:
	case <-time.After(time.Second):
		t.Fatal("no sweep ran")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not stop on context cancel")
	}

	pruner.mu.Lock()
	defer pruner.mu.Unlock()
	require.NotEmpty(t, pruner.cutoffs)
	// The cutoff trails now by the configured max age.
	assert.WithinDuration(t, time.Now().Add(-time.Hour), pruner.cutoffs[0], time.Minute)
}

func TestStartKeepsRunningAfterSweepError(t *testing.T) {
	pruner := newFakePruner()
	pruner.err = errors.New("table locked")
	cfg := Config{SweepInterval: 5 * time.Millisecond, RequestLogMaxAge: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Start(ctx, pruner, cfg, discardLogger())

	// Two ticks both reach the pruner despite the first one failing.
	for i := 0; i < 2; i++ {
		select {
		case <-pruner.called:
		case <-time.After(time.Second):
			t.Fatalf("sweep %d never ran", i+1)
		}
	}
}
