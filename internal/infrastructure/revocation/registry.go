// Package revocation holds the in-process revocation registry: the minimal
// stateful overlay that makes logout observable for otherwise stateless
// session tokens.
//
// Memory is bounded by the number of revoked tokens that have not yet expired.
// Expired entries are dropped when a lookup touches them and by Sweep, which
// Run calls periodically.
package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/webauth/authd/internal/core/ports"
)

// Registry is a concurrency-safe fingerprint → expiry map.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]time.Time
	now      func() time.Time
	observer func(live int)
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithSizeObserver registers fn to receive the entry count whenever it
// changes. fn runs outside the registry lock.
func WithSizeObserver(fn func(live int)) Option {
	return func(r *Registry) {
		r.observer = fn
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.RevocationRegistry = (*Registry)(nil)

// Revoke records fingerprint until expiresAt. Revoking twice is a no-op and an
// already expired token is not recorded at all.
func (r *Registry) Revoke(_ context.Context, fingerprint string, expiresAt time.Time) error {
	now := r.now()
	if !now.Before(expiresAt) {
		return nil
	}

	r.mu.Lock()
	_, exists := r.entries[fingerprint]
	if !exists {
		r.entries[fingerprint] = expiresAt
	}
	live := len(r.entries)
	r.mu.Unlock()

	if !exists {
		r.observe(live)
	}
	return nil
}

// IsRevoked reports whether fingerprint has a live entry. An expired entry is
// removed and reported as absent.
func (r *Registry) IsRevoked(_ context.Context, fingerprint string) (bool, error) {
	now := r.now()

	r.mu.Lock()
	expiresAt, ok := r.entries[fingerprint]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	if now.Before(expiresAt) {
		r.mu.Unlock()
		return true, nil
	}
	delete(r.entries, fingerprint)
	live := len(r.entries)
	r.mu.Unlock()

	r.observe(live)
	return false, nil
}

// Sweep removes every entry that expired at or before now and returns how
// many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	removed := 0
	for fp, expiresAt := range r.entries {
		if !now.Before(expiresAt) {
			delete(r.entries, fp)
			removed++
		}
	}
	live := len(r.entries)
	r.mu.Unlock()

	if removed > 0 {
		r.observe(live)
	}
	return removed
}

func (r *Registry) observe(live int) {
	if r.observer != nil {
		r.observer(live)
	}
}

// Len returns the number of stored entries, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Run sweeps every interval until ctx is cancelled. onSweep, when non-nil,
// receives the number of removed and remaining entries after each pass.
func (r *Registry) Run(ctx context.Context, interval time.Duration, onSweep func(removed, live int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := r.Sweep(r.now())
			if onSweep != nil {
				onSweep(removed, r.Len())
			}
		}
	}
}
