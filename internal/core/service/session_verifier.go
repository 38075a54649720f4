package service

import (
	"context"

	"github.com/webauth/authd/internal/core/domain"
	"github.com/webauth/authd/internal/core/ports"
)

// SessionVerifier accepts or rejects a presented session token.
type SessionVerifier struct {
	issuer   *TokenIssuer
	registry ports.RevocationRegistry
}

func NewSessionVerifier(issuer *TokenIssuer, registry ports.RevocationRegistry) *SessionVerifier {
	return &SessionVerifier{issuer: issuer, registry: registry}
}

// Verify checks signature and expiry first; only tokens that pass are looked
// up in the revocation registry.
func (v *SessionVerifier) Verify(ctx context.Context, token string) (*domain.Claims, error) {
	parsed, err := v.issuer.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := v.registry.IsRevoked(ctx, parsed.Fingerprint)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if revoked {
		return nil, &domain.Error{Kind: domain.KindRevoked, Message: domain.MsgRevokedToken}
	}
	return parsed.Claims, nil
}
