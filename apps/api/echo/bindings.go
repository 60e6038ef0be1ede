package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iatic/ecole/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the comma separated `ordering` query param; a leading "-" sorts descending.
// Fields not in allowed are dropped.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]bool) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !allowed[field] {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindBody binds the request body into dst; malformed bodies are validation errors.
func bindBody(ctx echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, dst); err != nil {
		return errInvalidData
	}
	return nil
}

// pathID parses the positive integer path param name.
func pathID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
