package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/webauth/authd/internal/core/ports"
)

const revokedPrefix = "revoked:"

// RevocationRegistry keeps revoked token fingerprints in Redis, shared by
// every instance of the service. Each key expires at the token's own expiry,
// so Redis does the sweeping.
// Key format: revoked:<fingerprint>
type RevocationRegistry struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationRegistry wraps the given Redis client.
func NewRevocationRegistry(client *redis.Client) *RevocationRegistry {
	return &RevocationRegistry{client: client, now: time.Now}
}

var _ ports.RevocationRegistry = (*RevocationRegistry)(nil)

// Revoke stores fingerprint until expiresAt. SET NX keeps repeated logouts
// idempotent; a token that is already past its expiry is not stored.
func (r *RevocationRegistry) Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	if !r.now().Before(expiresAt) {
		return nil
	}

	err := r.client.SetArgs(ctx, r.key(fingerprint), strconv.FormatInt(expiresAt.Unix(), 10), redis.SetArgs{
		Mode:     "NX",
		ExpireAt: expiresAt,
	}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return oops.Code("REVOCATION_WRITE_FAILED").
			With("fingerprint", fingerprint).
			Wrap(err)
	}
	return nil
}

// IsRevoked reports whether a live key exists for fingerprint.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(fingerprint)).Result()
	if err != nil {
		return false, oops.Code("REVOCATION_READ_FAILED").
			With("fingerprint", fingerprint).
			Wrap(err)
	}
	return n > 0, nil
}

func (r *RevocationRegistry) key(fingerprint string) string {
	return revokedPrefix + fingerprint
}
