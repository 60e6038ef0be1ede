package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core/absence"
	"github.com/iatic/ecole/core/access"
)

type absenceCreatedResponse struct {
	Message string          `json:"message"`
	Absence absence.Absence `json:"absence"`
}

type absenceApi struct {
	svc absence.Service
}

func registerAbsenceAPI(g *echo.Group, auth echo.MiddlewareFunc, svc absence.Service) {
	api := absenceApi{svc: svc}

	ag := g.Group("/absences", auth)
	ag.POST("", api.create, requireRole(access.RoleTeacher))
	ag.GET("/student", api.student, requireRole(access.RoleStudent))
	ag.GET("", api.query, requireRole(access.RoleAdmin))
	ag.DELETE("/:id", api.destroy, requireRole(access.RoleAdmin))
}

// Handlers

func (api *absenceApi) create(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	var data absence.NewAbsence
	if err = bindBody(ctx, &data); err != nil {
		return err
	}

	a, err := api.svc.Add(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "adding absence")
	}
	return ctx.JSON(http.StatusCreated, absenceCreatedResponse{Message: "Absence enregistrée avec succès", Absence: a})
}

func (api *absenceApi) student(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	absences, err := api.svc.ListForStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing student absences")
	}
	return ctx.JSON(http.StatusOK, absences)
}

func (api *absenceApi) query(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.ListAll(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing absences")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *absenceApi) destroy(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	absenceID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), id, absenceID); err != nil {
		return errors.Wrap(err, "deleting absence")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Absence supprimée avec succès"})
}
