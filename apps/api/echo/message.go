package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core/message"
)

type messageApi struct {
	svc message.Service
}

func registerMessageAPI(g *echo.Group, auth echo.MiddlewareFunc, svc message.Service) {
	api := messageApi{svc: svc}

	mg := g.Group("/messages", auth)
	mg.GET("/:class", api.query)
	mg.POST("", api.create)
}

// Handlers

func (api *messageApi) query(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	messages, err := api.svc.List(ctx.Request().Context(), id, ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	return ctx.JSON(http.StatusOK, messages)
}

func (api *messageApi) create(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	var data message.NewMessage
	if err = bindBody(ctx, &data); err != nil {
		return err
	}

	msg, err := api.svc.Post(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "posting message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}
