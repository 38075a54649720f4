package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/rs/zerolog"

	"github.com/webauth/authd/internal/core/domain"
	"github.com/webauth/authd/internal/core/ports"
	"github.com/webauth/authd/pkg/logger"
)

// AuthService implements registration, login, logout and authentication.
type AuthService struct {
	credentials *CredentialStore
	issuer      *TokenIssuer
	verifier    *SessionVerifier
	registry    ports.RevocationRegistry

	// adminDigest is the SHA-256 of the administrator secret; comparing
	// digests keeps the comparison constant time regardless of length.
	adminDigest  [sha256.Size]byte
	adminEnabled bool

	log zerolog.Logger
}

// NewAuthService wires the flow controller. An empty adminPassword disables
// the administrator login path.
func NewAuthService(
	credentials *CredentialStore,
	issuer *TokenIssuer,
	registry ports.RevocationRegistry,
	adminPassword string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		credentials:  credentials,
		issuer:       issuer,
		verifier:     NewSessionVerifier(issuer, registry),
		registry:     registry,
		adminDigest:  sha256.Sum256([]byte(adminPassword)),
		adminEnabled: adminPassword != "",
		log:          log,
	}
}

var _ ports.AuthService = (*AuthService)(nil)

// Register creates an account and sends the client to the login page.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, domain.NewValidationError("", domain.MsgEmptyFields)
	}

	id, err := s.credentials.Register(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		return nil, s.translate(err, "register")
	}

	s.log.Info().Str("user_id", id).Msg("user registered")
	return &ports.RegisterResult{UserID: id, Redirect: domain.RedirectLogin}, nil
}

// Login authenticates either the administrator or a registered user and mints
// a session token. The administrator path never consults the credential
// store.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.NewValidationError("", domain.MsgEmptyFields)
	}

	if strings.EqualFold(username, domain.AdminUsername) {
		return s.loginAdmin(in.Password)
	}

	user, err := s.credentials.Verify(ctx, username, in.Password)
	if err != nil {
		return nil, s.translate(err, "login")
	}

	return s.issue(domain.UserSubject(user), domain.RedirectDashboard)
}

func (s *AuthService) loginAdmin(password string) (*ports.LoginResult, error) {
	digest := sha256.Sum256([]byte(password))
	match := subtle.ConstantTimeCompare(digest[:], s.adminDigest[:]) == 1
	if !s.adminEnabled || !match {
		s.log.Warn().Msg("administrator login rejected")
		return nil, &domain.Error{Kind: domain.KindInvalidCredential, Message: domain.MsgInvalidPassword}
	}
	return s.issue(domain.AdminSubject(), domain.RedirectAdminHome)
}

func (s *AuthService) issue(sub domain.Subject, redirect string) (*ports.LoginResult, error) {
	issued, err := s.issuer.Issue(sub)
	if err != nil {
		return nil, s.translate(err, "issue token")
	}

	s.log.Info().
		Str("subject", sub.ID).
		Str("role", string(sub.Role)).
		Str("jti", issued.Claims.TokenID).
		Msg("session issued")

	return &ports.LoginResult{
		Token:     issued.Token,
		Claims:    issued.Claims,
		ExpiresAt: issued.Claims.ExpiresAt,
		Redirect:  redirect,
	}, nil
}

// Logout revokes token when it is still a live, genuine session. The cookie
// is cleared regardless of the outcome.
func (s *AuthService) Logout(ctx context.Context, token string) *ports.LogoutResult {
	result := &ports.LogoutResult{ClearCookie: true, Redirect: domain.RedirectLogin}
	if token == "" {
		return result
	}

	parsed, err := s.issuer.Parse(token)
	if err != nil {
		// Malformed or expired tokens can no longer authenticate.
		s.log.Debug().Str("reason", domain.KindOf(err).String()).Msg("logout without live token")
		return result
	}

	// The client may disconnect before the redirect is written; the
	// revocation must land anyway.
	if err := s.registry.Revoke(context.WithoutCancel(ctx), parsed.Fingerprint, parsed.Claims.ExpiresAt); err != nil {
		logger.Err(s.log.Error(), err).Str("jti", parsed.Claims.TokenID).Msg("failed to revoke session")
		return result
	}

	s.log.Info().
		Str("subject", parsed.Claims.Subject).
		Str("jti", parsed.Claims.TokenID).
		Msg("session revoked")
	return result
}

// Authenticate verifies a token presented by a protected route.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, s.translate(err, "authenticate")
	}
	return claims, nil
}

// translate keeps tagged errors as they are and turns anything else into a
// generic internal error after logging the cause.
func (s *AuthService) translate(err error, op string) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	logger.Err(s.log.Error(), err).Str("operation", op).Msg("auth operation failed")
	if de, ok := err.(*domain.Error); ok {
		return de
	}
	return domain.Internal(err)
}
