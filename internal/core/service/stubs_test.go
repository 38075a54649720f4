package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/webauth/authd/internal/core/domain"
)

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	findCalls int
	createErr error
	findErr   error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return domain.NewDuplicateError("username")
		}
		if u.Email == user.Email {
			return domain.NewDuplicateError("email")
		}
	}
	r.users[user.Username] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *stubUserRepo) finds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCalls
}

// stubRegistry is a map-backed revocation registry that counts calls.
type stubRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
	revokes int
	lookups int
	err     error
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{entries: make(map[string]time.Time)}
}

func (r *stubRegistry) Revoke(_ context.Context, fingerprint string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokes++
	if r.err != nil {
		return r.err
	}
	r.entries[fingerprint] = expiresAt
	return nil
}

func (r *stubRegistry) IsRevoked(_ context.Context, fingerprint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.entries[fingerprint]
	return ok, nil
}

func (r *stubRegistry) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *stubRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// fakeClock is a settable clock shared by the issuer under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store down")

const (
	testSecret        = "test-signing-key"
	testAdminPassword = "Adm1n!secret"
	testPassword      = "Str0ng!Pass"
)

type authFixture struct {
	svc      *AuthService
	repo     *stubUserRepo
	registry *stubRegistry
	clock    *fakeClock
}

func newAuthFixture(t *testing.T, adminPassword string) *authFixture {
	t.Helper()

	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	clock := newFakeClock()
	issuer, err := NewTokenIssuer([]byte(testSecret), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	repo := newStubUserRepo()
	registry := newStubRegistry()
	svc := NewAuthService(NewCredentialStore(repo, hasher), issuer, registry, adminPassword, zerolog.Nop())

	return &authFixture{svc: svc, repo: repo, registry: registry, clock: clock}
}

func expectKind(t *testing.T, err error, want domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := domain.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
