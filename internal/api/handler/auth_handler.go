package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webauth/authd/internal/api/metrics"
	"github.com/webauth/authd/internal/core/domain"
	"github.com/webauth/authd/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// sessionResponse describes the authenticated caller.
type sessionResponse struct {
	Subject   string `json:"sub"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func toSessionResponse(c *domain.Claims) sessionResponse {
	return sessionResponse{
		Subject:   c.Subject,
		Username:  c.Username,
		Email:     c.Email,
		Role:      string(c.Role),
		IssuedAt:  c.IssuedAt.Unix(),
		ExpiresAt: c.ExpiresAt.Unix(),
	}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      303   "Redirect to /login"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(domain.KindValidation.String()).Inc()
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(domain.KindOf(err).String()).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.Redirect(http.StatusSeeOther, res.Redirect)
}

// Login authenticates the administrator or a registered user and sets the
// session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      303   "Redirect to /admin/home or /dashboard"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("unknown", domain.KindValidation.String()).Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("unknown", domain.KindOf(err).String()).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues(string(res.Claims.Role), "success").Inc()
	c.SetCookie(h.cookies.sessionCookie(res.Token, res.ExpiresAt))
	return c.Redirect(http.StatusSeeOther, res.Redirect)
}

// Logout revokes the current session, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Success      303   "Redirect to /login"
// @Router       /logout [post]
// @Router       /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := TokenFromRequest(c.Request())
	presence := "absent"
	if token != "" {
		presence = "present"
	}
	metrics.LogoutsTotal.WithLabelValues(presence).Inc()

	res := h.authService.Logout(c.Request().Context(), token)
	if res.ClearCookie {
		c.SetCookie(h.cookies.clearCookie())
	}
	return c.Redirect(http.StatusSeeOther, res.Redirect)
}

// Me returns the claims of the authenticated caller.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(claims))
}

// Dashboard is the landing page of regular users. Administrators may view it
// too.
//
// @Summary      User dashboard
// @Tags         pages
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /dashboard [get]
func (h *AuthHandler) Dashboard(c echo.Context) error {
	return h.Me(c)
}

// AdminHome is the landing page of the administrator.
//
// @Summary      Administrator home
// @Tags         pages
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /admin/home [get]
func (h *AuthHandler) AdminHome(c echo.Context) error {
	return h.Me(c)
}
