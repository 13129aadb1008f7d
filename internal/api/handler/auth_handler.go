package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lastmile/delivery-api/internal/api/cookie"
	"github.com/lastmile/delivery-api/internal/api/metrics"
	"github.com/lastmile/delivery-api/internal/core/domain"
	"github.com/lastmile/delivery-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     *cookie.Store
	audit       ports.AuditPublisher
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookies *cookie.Store, audit ports.AuditPublisher, log zerolog.Logger) *AuthHandler {
	if audit == nil {
		audit = discardPublisher{}
	}
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		audit:       audit,
		log:         log,
	}
}

// Signup creates a new account. It does not log the user in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return domain.NewValidationError("invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	user, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.SignupsTotal.WithLabelValues(metrics.ResultConflict).Inc()
			h.publish(c, domain.AuthEvent{Type: domain.EventSignupConflict, Email: req.Email, Role: domain.Role(req.Role)})
		case errors.Is(err, domain.ErrValidation):
			metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		default:
			metrics.SignupsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	metrics.SignupsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	h.publish(c, domain.AuthEvent{Type: domain.EventSignup, Email: user.Email, UserID: user.ID, Role: user.Role})
	return c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

// Login verifies credentials and sets the session cookie.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return domain.NewValidationError("invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrValidation) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
			h.publish(c, domain.AuthEvent{Type: domain.EventLoginFailed, Email: req.Email})
		} else {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	h.cookies.Attach(c, res.Token, res.ExpiresAt)
	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	h.publish(c, domain.AuthEvent{Type: domain.EventLogin, Email: res.User.Email, UserID: res.User.ID, Role: res.User.Role})

	return c.JSON(http.StatusOK, loginResponse{
		Message:  "Logged in successfully",
		Role:     res.User.Role,
		Redirect: res.User.Role.LandingPath(),
		User:     res.User,
	})
}

// Logout clears the session cookie. It succeeds with or without a session.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200   {object}  messageResponse
// @Failure      500   {object}  errorBody
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := h.cookies.Read(c)
	h.cookies.Clear(c)

	if ok {
		sess, err := h.authService.Logout(c.Request().Context(), raw)
		if err != nil {
			// The cookie is already gone; the token itself stays valid until
			// expiry, so make the failure visible.
			h.log.Error().Err(err).Msg("session revocation failed")
		}
		if sess != nil {
			h.publish(c, domain.AuthEvent{Type: domain.EventLogout, Email: sess.Email, UserID: sess.UserID, Role: sess.Role})
		}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me returns the identity carried by the current session cookie.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200   {object}  meResponse
// @Failure      401   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	raw, ok := h.cookies.Read(c)
	if !ok {
		metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return domain.ErrUnauthenticated
	}

	sess, err := h.authService.CurrentUser(c.Request().Context(), raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		} else {
			metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, meResponse{User: sess.Claims})
}

func (h *AuthHandler) publish(c echo.Context, ev domain.AuthEvent) {
	ev.IP = c.RealIP()
	ev.UserAgent = c.Request().UserAgent()
	h.audit.Publish(ev)
}

type discardPublisher struct{}

func (discardPublisher) Publish(domain.AuthEvent) {}
