package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/note"
)

type noteCreatedResponse struct {
	Message string    `json:"message"`
	Note    note.Note `json:"note"`
}

type noteApi struct {
	svc note.Service
}

func registerNoteAPI(g *echo.Group, auth echo.MiddlewareFunc, svc note.Service) {
	api := noteApi{svc: svc}

	ng := g.Group("/notes", auth)
	ng.POST("", api.create, requireRole(access.RoleTeacher))
	ng.DELETE("/:id", api.destroy, requireRole(access.RoleTeacher))
	ng.GET("/student", api.student, requireRole(access.RoleStudent))
	ng.GET("/teacher/:class", api.teacher, requireRole(access.RoleTeacher))
}

// Handlers

func (api *noteApi) create(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	var data note.NewNote
	if err = bindBody(ctx, &data); err != nil {
		return err
	}

	n, err := api.svc.Add(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "adding note")
	}
	return ctx.JSON(http.StatusCreated, noteCreatedResponse{Message: "Note ajoutée avec succès", Note: n})
}

func (api *noteApi) destroy(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	noteID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), id, noteID); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Note supprimée avec succès"})
}

func (api *noteApi) student(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	notes, err := api.svc.ListForStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing student notes")
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) teacher(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	notes, err := api.svc.ListForTeacher(ctx.Request().Context(), id, ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "listing class notes")
	}
	return ctx.JSON(http.StatusOK, notes)
}
