package ports

import (
	"context"

	"github.com/webauth/authd/internal/core/domain"
)

// UserRepository defines the persistence operations behind the credential store.
type UserRepository interface {
	// Create inserts a new user. A username or email collision must be
	// reported as a *domain.Error of KindDuplicate naming the field, and must
	// leave no partial record behind.
	Create(ctx context.Context, user *domain.User) error
	// FindByUsername looks up a user by normalized username and returns
	// domain.ErrNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
