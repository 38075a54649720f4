package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/webauth/authd/internal/api/handler"
	"github.com/webauth/authd/internal/core/domain"
	"github.com/webauth/authd/internal/core/service"
	"github.com/webauth/authd/internal/infrastructure/revocation"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return domain.NewDuplicateError("username")
		}
		if u.Email == user.Email {
			return domain.NewDuplicateError("email")
		}
	}
	clone := *user
	m.users[user.Username] = &clone
	return nil
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// The router registers Prometheus collectors on the default registry, so a
// single instance is shared by every test in the package.
var (
	routerOnce sync.Once
	testRouter *echo.Echo
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	routerOnce.Do(func() {
		hasher, err := service.NewBcryptHasher(bcrypt.MinCost)
		if err != nil {
			t.Fatalf("NewBcryptHasher: %v", err)
		}
		issuer, err := service.NewTokenIssuer([]byte("router-test-key"))
		if err != nil {
			t.Fatalf("NewTokenIssuer: %v", err)
		}
		svc := service.NewAuthService(
			service.NewCredentialStore(&memoryUsers{users: make(map[string]*domain.User)}, hasher),
			issuer,
			revocation.New(),
			"Adm1n!secret",
			zerolog.Nop(),
		)
		testRouter = NewRouter(Dependencies{
			AuthService: svc,
			Readiness:   map[string]handler.Pinger{},
			Log:         zerolog.Nop(),
		})
	})
	return testRouter
}

func serve(e *echo.Echo, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == handler.SessionCookie {
			return ck
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestRouter_UserSessionLifecycle(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/register", url.Values{
		"username": {"dora"},
		"email":    {"dora@example.com"},
		"password": {"Str0ng!Pass"},
	}, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != domain.RedirectLogin {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodPost, "/register", url.Values{
		"username": {"dora2"},
		"email":    {"DORA@example.com"},
		"password": {"Str0ng!Pass"},
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", rec.Code)
	}

	rec = serve(e, http.MethodPost, "/login", url.Values{"username": {"dora"}, "password": {"Str0ng!Pass"}}, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != domain.RedirectDashboard {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	ck := sessionCookie(t, rec)

	if rec := serve(e, http.MethodGet, "/dashboard", nil, ck); rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/auth/me", nil, ck); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"dora"`) {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(e, http.MethodGet, "/admin/home", nil, ck); rec.Code != http.StatusForbidden {
		t.Fatalf("admin home as user: expected 403, got %d", rec.Code)
	}

	rec = serve(e, http.MethodPost, "/logout", nil, ck)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != domain.RedirectLogin {
		t.Fatalf("logout: %d", rec.Code)
	}

	rec = serve(e, http.MethodGet, "/dashboard", nil, ck)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), domain.MsgRevokedToken) {
		t.Fatalf("dashboard after logout: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_AdminSession(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/login", url.Values{"username": {"Admin"}, "password": {"Adm1n!secret"}}, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != domain.RedirectAdminHome {
		t.Fatalf("admin login: %d %s", rec.Code, rec.Body.String())
	}
	ck := sessionCookie(t, rec)

	if rec := serve(e, http.MethodGet, "/admin/home", nil, ck); rec.Code != http.StatusOK {
		t.Fatalf("admin home: expected 200, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/dashboard", nil, ck); rec.Code != http.StatusOK {
		t.Fatalf("dashboard as admin: expected 200, got %d", rec.Code)
	}
}

func TestRouter_Failures(t *testing.T) {
	e := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		form   url.Values
		cookie *http.Cookie
		want   int
	}{
		{"weak password", http.MethodPost, "/register", url.Values{"username": {"eve"}, "email": {"eve@example.com"}, "password": {"weak"}}, nil, http.StatusBadRequest},
		{"missing fields", http.MethodPost, "/login", url.Values{"username": {"eve"}}, nil, http.StatusBadRequest},
		{"unknown user", http.MethodPost, "/login", url.Values{"username": {"nobody"}, "password": {"Str0ng!Pass"}}, nil, http.StatusUnauthorized},
		{"bad admin password", http.MethodPost, "/login", url.Values{"username": {"admin"}, "password": {"nope"}}, nil, http.StatusUnauthorized},
		{"no cookie", http.MethodGet, "/dashboard", nil, nil, http.StatusUnauthorized},
		{"garbage cookie", http.MethodGet, "/auth/me", nil, &http.Cookie{Name: handler.SessionCookie, Value: "garbage"}, http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/nowhere", nil, nil, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, tc.method, tc.path, tc.form, tc.cookie)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_Probes(t *testing.T) {
	e := newTestRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := serve(e, http.MethodGet, path, nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
