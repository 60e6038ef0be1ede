package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
)

const msgServerError = "Erreur serveur"

var (
	errInvalidData = core.NewValidationError(errors.New("Données invalides"))
	errInvalidID   = core.NewValidationError(errors.New("Identifiant invalide"))
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := errorResponse{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				resp.Message = m
			} else {
				resp.Message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			if len(origErr.Fields) > 0 {
				resp.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					resp.Fields[fErr.Field] = fErr.Error
				}
			}
		case *core.ConflictError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
		case *core.AuthError:
			code = http.StatusUnauthorized
			resp.Message = origErr.Error()
		case *core.AuthorizationError:
			code = http.StatusForbidden
			resp.Message = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp.Message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			resp.Message = msgServerError

			id, _ := getContextIdentity(ctx)
			logger.Error(msgServerError, errors.Wrap(err, msgServerError), id)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
