package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/lastmile/delivery-api/internal/api/middleware"
	"github.com/lastmile/delivery-api/internal/core/domain"
)

// ctxSession extracts the session injected by the Auth middleware. A missing
// or role-less session means the route was wired without Auth; treat it as
// unauthenticated rather than trusting anything else on the request.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess := middleware.CurrentSession(c)
	if sess == nil || !sess.Role.Valid() {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}
