package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the per-role dashboard entry points. Each route is
// guarded by Auth and RBAC; the handler only echoes the verified identity.
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Show returns the caller's identity and their role's landing path.
//
// @Summary      Role dashboard
// @Tags         dashboard
// @Produce      json
// @Success      200   {object}  dashboardResponse
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Router       /api/dashboard/customer [get]
// @Router       /api/dashboard/driver [get]
// @Router       /api/dashboard/retailer [get]
func (h *DashboardHandler) Show(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		User:    sess.Claims,
		Landing: sess.Role.LandingPath(),
	})
}
