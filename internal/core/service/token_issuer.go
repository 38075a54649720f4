package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/webauth/authd/internal/core/domain"
)

// TokenLifetime is fixed: every session token expires two hours after issue.
const TokenLifetime = 2 * time.Hour

// sessionClaims is the JWT payload. Standard fields (sub, iat, exp, jti) come
// from the embedded RegisteredClaims.
type sessionClaims struct {
	Username string      `json:"username"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed token together with its claims.
type IssuedToken struct {
	Token  string
	Claims *domain.Claims
}

// ParsedToken is a token whose signature and expiry have been checked.
type ParsedToken struct {
	Claims      *domain.Claims
	Fingerprint string
}

// TokenIssuer mints and verifies HS256 session tokens with a process-wide key.
type TokenIssuer struct {
	key    []byte
	now    func() time.Time
	parser *jwt.Parser
}

// IssuerOption customises a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer copies signingKey; later changes to the caller's slice have
// no effect.
func NewTokenIssuer(signingKey []byte, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("token issuer: signing key is required")
	}

	t := &TokenIssuer{
		key: append([]byte(nil), signingKey...),
		now: time.Now,
		// Expiry is checked by hand after the signature so a forged token
		// can never be reported as merely expired.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token for sub that expires TokenLifetime from now.
func (t *TokenIssuer) Issue(sub domain.Subject) (*IssuedToken, error) {
	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(TokenLifetime)

	claims := sessionClaims{
		Username: sub.Username,
		Email:    sub.Email,
		Role:     sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{
		Token:  signed,
		Claims: toDomainClaims(&claims),
	}, nil
}

// Parse verifies the signature and then the expiry of token.
func (t *TokenIssuer) Parse(token string) (*ParsedToken, error) {
	claims := &sessionClaims{}
	parsed, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, &domain.Error{Kind: domain.KindMalformed, Message: domain.MsgMalformedToken, Err: err}
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, &domain.Error{Kind: domain.KindMalformed, Message: domain.MsgMalformedToken}
	}
	if claims.Role != domain.RoleAdmin && claims.Role != domain.RoleUser {
		return nil, &domain.Error{Kind: domain.KindMalformed, Message: domain.MsgMalformedToken}
	}
	if !t.now().Before(claims.ExpiresAt.Time) {
		return nil, &domain.Error{Kind: domain.KindExpired, Message: domain.MsgExpiredToken}
	}

	return &ParsedToken{
		Claims:      toDomainClaims(claims),
		Fingerprint: Fingerprint(parsed.Signature),
	}, nil
}

// Fingerprint derives the revocation key for a token from its decoded
// signature bytes.
func Fingerprint(signature []byte) string {
	sum := sha256.Sum256(signature)
	return hex.EncodeToString(sum[:])
}

func toDomainClaims(c *sessionClaims) *domain.Claims {
	out := &domain.Claims{
		Subject:  c.Subject,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
		TokenID:  c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return out
}
