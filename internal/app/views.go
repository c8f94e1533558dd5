package service

import (
	"context"
	"sync"
)

// viewTracker keeps at most one in-flight build per view id. Starting a build
// for a view cancels the build that was running for it, and only the most
// recent build may publish its result.
type viewTracker struct {
	mu       sync.Mutex
	seq      uint64
	builds   map[string]*viewBuild
	onChange func(inFlight int)
}

type viewBuild struct {
	seq    uint64
	cancel context.CancelFunc
}

func newViewTracker(onChange func(int)) *viewTracker {
	if onChange == nil {
		onChange = func(int) {}
	}
	return &viewTracker{builds: make(map[string]*viewBuild), onChange: onChange}
}

// begin registers a build for view and returns its context and a finish
// function. finish reports whether the build is still the newest one for the
// view; it must be called exactly once. An empty view is never tracked.
func (t *viewTracker) begin(ctx context.Context, view string) (context.Context, func() bool) {
	if view == "" {
		return ctx, func() bool { return true }
	}

	buildCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if prev, ok := t.builds[view]; ok {
		prev.cancel()
	}
	t.seq++
	mine := t.seq
	t.builds[view] = &viewBuild{seq: mine, cancel: cancel}
	n := len(t.builds)
	t.mu.Unlock()
	t.onChange(n)

	finish := func() bool {
		t.mu.Lock()
		cur, ok := t.builds[view]
		current := ok && cur.seq == mine
		if current {
			delete(t.builds, view)
		}
		n := len(t.builds)
		t.mu.Unlock()

		cancel()
		if current {
			t.onChange(n)
		}
		return current
	}
	return buildCtx, finish
}

// inFlight returns the number of views with a running build.
func (t *viewTracker) inFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.builds)
}

// cancelAll cancels every running build.
func (t *viewTracker) cancelAll() {
	t.mu.Lock()
	for view, b := range t.builds {
		b.cancel()
		delete(t.builds, view)
	}
	t.mu.Unlock()
	t.onChange(0)
}
