package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/webauth/authd/internal/core/domain"
	"github.com/webauth/authd/internal/core/ports"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9 _]+$`)

// CredentialStore owns user records: it validates registrations, hashes
// passwords and verifies login attempts.
type CredentialStore struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	validate *validator.Validate
	now      func() time.Time
}

func NewCredentialStore(repo ports.UserRepository, hasher ports.PasswordHasher) *CredentialStore {
	return &CredentialStore{
		repo:     repo,
		hasher:   hasher,
		validate: validator.New(),
		now:      time.Now,
	}
}

// NormalizeUsername trims and lower-cases a username the way it is stored.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail trims and lower-cases an email the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates and stores a new user and returns its identifier.
func (s *CredentialStore) Register(ctx context.Context, username, email, password string) (string, error) {
	if !IsStrongPassword(password) {
		return "", domain.NewValidationError("password", domain.MsgWeakPassword)
	}

	username = NormalizeUsername(username)
	email = NormalizeEmail(email)
	if err := s.validateIdentity(username, email); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if domain.KindOf(err) == domain.KindValidation {
			return "", err
		}
		return "", domain.Internal(err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if domain.KindOf(err) == domain.KindDuplicate {
			return "", err
		}
		return "", domain.Internal(err)
	}
	return user.ID, nil
}

// validateIdentity collects every username and email violation into a single
// validation error.
func (s *CredentialStore) validateIdentity(username, email string) error {
	var msgs []string
	field := ""

	if username == domain.AdminUsername {
		msgs = append(msgs, domain.MsgReservedName)
		field = "username"
	}
	if !usernamePattern.MatchString(username) {
		msgs = append(msgs, domain.MsgInvalidName)
		field = "username"
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		msgs = append(msgs, domain.MsgInvalidEmail)
		if field == "" {
			field = "email"
		}
	}

	if len(msgs) == 0 {
		return nil
	}
	return domain.NewValidationError(field, strings.Join(msgs, ", "))
}

// Verify checks password against the stored hash for username. Unknown users
// still pay for a hash comparison so the two failures are indistinguishable
// by timing.
func (s *CredentialStore) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return nil, &domain.Error{Kind: domain.KindNotFound, Message: domain.MsgUserNotFound}
		}
		return nil, domain.Internal(err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !ok {
		return nil, &domain.Error{Kind: domain.KindInvalidCredential, Message: domain.MsgInvalidPassword}
	}
	return user, nil
}
