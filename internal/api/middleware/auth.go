package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/delivery-api/internal/api/cookie"
	"github.com/lastmile/delivery-api/internal/api/metrics"
	"github.com/lastmile/delivery-api/internal/core/domain"
	"github.com/lastmile/delivery-api/internal/core/ports"
)

// SessionKey is the echo.Context key holding the verified *domain.Session.
const SessionKey = "session"

// Auth verifies the session cookie and injects the session into context.
func Auth(authService ports.AuthService, cookies *cookie.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := cookies.Read(c)
			if !ok {
				metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			sess, err := authService.CurrentUser(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultInvalid).Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
				}
				metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultError).Inc()
				return err
			}

			metrics.SessionsVerifiedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			c.Set(SessionKey, sess)
			return next(c)
		}
	}
}

// CurrentSession returns the session stored by Auth, or nil.
func CurrentSession(c echo.Context) *domain.Session {
	sess, _ := c.Get(SessionKey).(*domain.Session)
	return sess
}
