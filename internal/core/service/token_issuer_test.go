package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/webauth/authd/internal/core/domain"
)

func newTestIssuer(t *testing.T, clock *fakeClock) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer([]byte(testSecret), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func TestNewTokenIssuer_RequiresKey(t *testing.T) {
	if _, err := NewTokenIssuer(nil); err == nil {
		t.Fatalf("expected error for empty signing key")
	}
}

func TestNewTokenIssuer_CopiesKey(t *testing.T) {
	key := []byte(testSecret)
	issuer, err := NewTokenIssuer(key)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	issued, err := issuer.Issue(domain.AdminSubject())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	key[0] ^= 0xff
	if _, err := issuer.Parse(issued.Token); err != nil {
		t.Fatalf("mutating the caller's key broke verification: %v", err)
	}
}

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(t, clock)

	sub := domain.Subject{ID: "u-1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser}
	issued, err := issuer.Issue(sub)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(issued.Token, ".") != 2 {
		t.Fatalf("expected a compact JWS, got %q", issued.Token)
	}
	if !issued.Claims.IssuedAt.Equal(clock.Now()) {
		t.Fatalf("iat = %s, want %s", issued.Claims.IssuedAt, clock.Now())
	}
	if !issued.Claims.ExpiresAt.Equal(clock.Now().Add(TokenLifetime)) {
		t.Fatalf("exp = %s, want iat + %s", issued.Claims.ExpiresAt, TokenLifetime)
	}
	if issued.Claims.TokenID == "" {
		t.Fatalf("expected jti")
	}

	parsed, err := issuer.Parse(issued.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(issued.Token[strings.LastIndexByte(issued.Token, '.')+1:])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sum := sha256.Sum256(sig)
	if parsed.Fingerprint != hex.EncodeToString(sum[:]) {
		t.Fatalf("fingerprint is not the hex SHA-256 of the signature")
	}
	again, err := issuer.Parse(issued.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if again.Fingerprint != parsed.Fingerprint {
		t.Fatalf("fingerprint changed between parses")
	}
	if parsed.Claims.Subject != "u-1" || parsed.Claims.Username != "alice" || parsed.Claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", parsed.Claims)
	}
}

func TestTokenIssuer_DistinctTokensPerIssue(t *testing.T) {
	issuer := newTestIssuer(t, newFakeClock())

	a, err := issuer.Issue(domain.AdminSubject())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := issuer.Issue(domain.AdminSubject())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a.Token == b.Token {
		t.Fatalf("two issues in the same second produced the same token")
	}
	pa, err := issuer.Parse(a.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pb, err := issuer.Parse(b.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pa.Fingerprint == pb.Fingerprint {
		t.Fatalf("distinct tokens share a fingerprint")
	}
}

func TestTokenIssuer_Expiry(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(t, clock)
	issued, err := issuer.Issue(domain.AdminSubject())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(TokenLifetime - time.Second)
	if _, err := issuer.Parse(issued.Token); err != nil {
		t.Fatalf("rejected one second before expiry: %v", err)
	}

	clock.Advance(time.Second)
	_, err = issuer.Parse(issued.Token)
	expectKind(t, err, domain.KindExpired)
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(t, clock)

	valid, err := issuer.Issue(domain.AdminSubject())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, err := issuer.Issue(domain.Subject{ID: "u-2", Username: "bob", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims := sessionClaims{
		Username: "admin",
		Role:     domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-key"))
	if err != nil {
		t.Fatalf("sign wrong key: %v", err)
	}

	claims.Role = "superuser"
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign bad role: %v", err)
	}

	claims.Role = domain.RoleAdmin
	claims.ExpiresAt = nil
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign no expiry: %v", err)
	}

	// Payload of one token with the signature of another.
	vp := strings.Split(valid.Token, ".")
	op := strings.Split(other.Token, ".")
	spliced := vp[0] + "." + op[1] + "." + vp[2]

	tests := map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"alg none":      none,
		"alg HS512":     hs512,
		"wrong key":     wrongKey,
		"unknown role":  badRole,
		"missing exp":   noExpiry,
		"spliced":       spliced,
		"trailing data": valid.Token + "x",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			expectKind(t, err, domain.KindMalformed)
		})
	}
}

func TestTokenIssuer_ForgedExpiredTokenIsMalformed(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(t, clock)

	claims := sessionClaims{
		Role: domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(clock.Now().Add(-3 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(-time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = issuer.Parse(forged)
	expectKind(t, err, domain.KindMalformed)
}
