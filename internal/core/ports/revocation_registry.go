package ports

import (
	"context"
	"time"
)

// RevocationRegistry records tokens that were logged out before their natural
// expiry. Entries are keyed by token fingerprint and never outlive expiresAt.
type RevocationRegistry interface {
	// Revoke is idempotent. Entries whose expiry already passed are ignored.
	Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error
	// IsRevoked reports whether a live entry exists for fingerprint.
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
}
