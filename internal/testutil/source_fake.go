package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// FakeAdapter is a scriptable source.Adapter. Each Fetch returns the current
// snapshot or error; tests change them between refreshes.
type FakeAdapter struct {
	mu       sync.Mutex
	id       string
	snapshot model.Snapshot
	err      error
	delay    time.Duration
	history  []model.Snapshot
	calls    int
	gate     *fetchGate
}

type fetchGate struct {
	started chan struct{}
	release chan struct{}
}

// NewFakeAdapter creates a FakeAdapter for id that returns an empty snapshot.
func NewFakeAdapter(id string) *FakeAdapter {
	return &FakeAdapter{
		id:       id,
		snapshot: model.NewSnapshot(id, BaseTime),
	}
}

// ID returns the adapter's source ID.
func (f *FakeAdapter) ID() string {
	return f.id
}

// Fetch returns the configured snapshot, or the configured error wrapped as a
// source failure. A configured delay is honored unless ctx ends first.
func (f *FakeAdapter) Fetch(ctx context.Context) (model.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	snap, err, delay, gate := f.snapshot, f.err, f.delay, f.gate
	f.gate = nil
	f.mu.Unlock()

	if gate != nil {
		close(gate.started)
		select {
		case <-gate.release:
		case <-ctx.Done():
			return model.Snapshot{}, apperrors.NewSourceError(f.id, ctx.Err())
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.Snapshot{}, apperrors.NewSourceError(f.id, ctx.Err())
		}
	}
	if err != nil {
		return model.Snapshot{}, apperrors.NewSourceError(f.id, err)
	}
	return snap, nil
}

// History returns the configured history snapshots.
func (f *FakeAdapter) History(_ context.Context) ([]model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

// Set replaces the snapshot returned by Fetch and clears any error.
func (f *FakeAdapter) Set(at time.Time, categories map[string][]model.ProductQuote) *FakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := model.NewSnapshot(f.id, at)
	for k, v := range categories {
		snap.Categories[k] = v
	}
	f.snapshot = snap
	f.err = nil
	return f
}

// Fail makes Fetch return err.
func (f *FakeAdapter) Fail(err error) *FakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// WithDelay makes Fetch block for d before answering.
func (f *FakeAdapter) WithDelay(d time.Duration) *FakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// Block makes the next Fetch hold its snapshot until release is called.
// started is closed once that Fetch has begun.
func (f *FakeAdapter) Block() (started <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g := &fetchGate{started: make(chan struct{}), release: make(chan struct{})}
	f.gate = g
	return g.started, func() { close(g.release) }
}

// WithHistory sets the snapshots returned by History.
func (f *FakeAdapter) WithHistory(snaps ...model.Snapshot) *FakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = snaps
	return f
}

// Calls returns how many times Fetch was called.
func (f *FakeAdapter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
