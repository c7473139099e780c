package preview

import (
	"context"
	"sync"
	"time"

	"github.com/spiffcs/prwatch/internal/constants"
)

// Focus tracks which PR the user is looking at. Leaving a PR clears the
// focus only after a grace period, so moving between adjacent rows does not
// flicker; focusing again before it fires cancels the clear.
type Focus struct {
	cache *Cache
	grace time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	current string
	timer   *time.Timer
	closed  bool
}

// NewFocus creates a tracker that loads previews into cache. A zero grace
// uses the default.
func NewFocus(ctx context.Context, cache *Cache, grace time.Duration) *Focus {
	if grace <= 0 {
		grace = constants.FocusGracePeriod
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Focus{
		cache:  cache,
		grace:  grace,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Focus makes id current and starts loading its preview.
func (f *Focus) Focus(id string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.stopTimer()
	f.current = id
	f.wg.Add(1)
	f.mu.Unlock()

	go func() {
		defer f.wg.Done()
		_ = f.cache.EnsureLoaded(f.ctx, id)
	}()
}

// Blur schedules the focus to clear after the grace period.
func (f *Focus) Blur() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.current == "" {
		return
	}
	f.stopTimer()

	var t *time.Timer
	t = time.AfterFunc(f.grace, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.timer == t {
			f.current = ""
			f.timer = nil
		}
	})
	f.timer = t
}

// Current returns the focused PR id, or "".
func (f *Focus) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Close cancels pending clears and in-flight loads and waits for them.
func (f *Focus) Close() {
	f.mu.Lock()
	f.closed = true
	f.stopTimer()
	f.mu.Unlock()

	f.cancel()
	f.wg.Wait()
}

// stopTimer cancels a pending clear. Callers hold mu.
func (f *Focus) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
