package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/dashboard"
)

type dashboardApi struct {
	svc dashboard.Service
}

func registerDashboardAPI(g *echo.Group, auth echo.MiddlewareFunc, svc dashboard.Service) {
	api := dashboardApi{svc: svc}

	g.GET("/dashboard/teacher", api.teacher, auth, requireRole(access.RoleTeacher))
}

func (api *dashboardApi) teacher(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	dash, err := api.svc.Teacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "building teacher dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
