package ports

import (
	"context"
	"time"

	"github.com/webauth/authd/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.Register.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// RegisterResult tells the caller where to send the client next.
type RegisterResult struct {
	UserID   string
	Redirect string
}

// LoginInput is the DTO passed from the transport layer to AuthService.Login.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the freshly minted session token.
type LoginResult struct {
	Token     string
	Claims    *domain.Claims
	ExpiresAt time.Time
	Redirect  string
}

// LogoutResult is always successful: the cookie is cleared either way.
type LogoutResult struct {
	ClearCookie bool
	Redirect    string
}

// AuthService orchestrates the register, login, logout and authenticate flows.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, token string) *LogoutResult
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}
