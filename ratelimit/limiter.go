package ratelimit

import (
	"context"
	"sync"
	"time"
)

/* Limiter throttles outgoing messages per (tenant, session) pair
 * Each key owns a fixed window that is lazily created on the first check
 * and swept once its reset time has passed
 */

const (
	DefaultMaxMessages     = 20
	DefaultWindow          = 60 * time.Second
	DefaultCleanupInterval = 60 * time.Second
)

// Config bounds how many messages a key may send per window
type Config struct {
	MaxMessages int
	Window      time.Duration
}

// DefaultConfig returns 20 messages per 60 seconds
func DefaultConfig() Config {
	return Config{
		MaxMessages: DefaultMaxMessages,
		Window:      DefaultWindow,
	}
}

// Window is the counter state for a single tenant/session key
type Window struct {
	Key     string
	Count   int
	ResetAt time.Time
}

// Limiter is safe for concurrent use
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*Window
	config  Config
	now     func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithConfig overrides the default per-key configuration
func WithConfig(cfg Config) Option {
	return func(l *Limiter) {
		l.config = normalize(cfg, DefaultConfig())
	}
}

// WithClock replaces time.Now, used by tests to move time forward
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates an empty limiter
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*Window),
		config:  DefaultConfig(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key builds the composite map key for a tenant/session pair
func Key(tenantID, sessionID string) string {
	return tenantID + ":" + sessionID
}

// IsRateLimited reports whether the key has used up its quota.
// An absent or expired window is (re)initialised before the check.
func (l *Limiter) IsRateLimited(tenantID, sessionID string, cfg ...Config) bool {
	c := l.resolve(cfg)

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.current(Key(tenantID, sessionID), c).Count >= c.MaxMessages
}

// Increment counts one sent message against the current window.
// Callers must call IsRateLimited first; without a window this is a no-op.
func (l *Limiter) Increment(tenantID, sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.active(Key(tenantID, sessionID))
	if !ok {
		return
	}
	w.Count++
}

// Allow checks and increments under one lock: it reserves a slot in the key's window
// and returns false, without counting, when the quota is used up.
// Concurrent senders must use Allow; IsRateLimited followed by Increment can overshoot.
func (l *Limiter) Allow(tenantID, sessionID string, cfg ...Config) bool {
	c := l.resolve(cfg)

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(Key(tenantID, sessionID), c)
	if w.Count >= c.MaxMessages {
		return false
	}
	w.Count++
	return true
}

// Release returns a slot reserved by Allow when the message was not sent after all
func (l *Limiter) Release(tenantID, sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.active(Key(tenantID, sessionID))
	if !ok || w.Count == 0 {
		return
	}
	w.Count--
}

// Remaining returns how many messages the key may still send in the active window
func (l *Limiter) Remaining(tenantID, sessionID string, cfg ...Config) int {
	c := l.resolve(cfg)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.active(Key(tenantID, sessionID))
	if !ok {
		return c.MaxMessages
	}
	remaining := c.MaxMessages - w.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetIn returns the time left until the active window resets, zero when none is active
func (l *Limiter) ResetIn(tenantID, sessionID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.active(Key(tenantID, sessionID))
	if !ok {
		return 0
	}
	return w.ResetAt.Sub(l.now())
}

// Snapshot returns a copy of the active window for a key
func (l *Limiter) Snapshot(tenantID, sessionID string) (Window, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.active(Key(tenantID, sessionID))
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// Reset drops the window for a key
func (l *Limiter) Reset(tenantID, sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, Key(tenantID, sessionID))
}

// ClearAll drops every window
func (l *Limiter) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.windows = make(map[string]*Window)
}

// Len returns the number of tracked windows, expired ones included
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.windows)
}

// Cleanup removes expired windows and returns how many were removed
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.ResetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired windows every interval until ctx is cancelled
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// active must be called with mu held
// current returns the active window for key, starting a new one when absent or expired
func (l *Limiter) current(key string, c Config) *Window {
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.ResetAt) {
		w = &Window{
			Key:     key,
			Count:   0,
			ResetAt: now.Add(c.Window),
		}
		l.windows[key] = w
	}
	return w
}

func (l *Limiter) active(key string) (*Window, bool) {
	w, ok := l.windows[key]
	if !ok || !l.now().Before(w.ResetAt) {
		return nil, false
	}
	return w, true
}

func (l *Limiter) resolve(cfg []Config) Config {
	if len(cfg) == 0 {
		return l.config
	}
	return normalize(cfg[0], l.config)
}

func normalize(cfg, fallback Config) Config {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = fallback.MaxMessages
	}
	if cfg.Window <= 0 {
		cfg.Window = fallback.Window
	}
	return cfg
}
