package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kmutombo/veridoc/core"
)

var (
	orderingParam = "ordering"
	limitParam    = "limit"
	offsetParam   = "offset"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the ordering query parameter ("field,-other"). Field names
// reach the ORDER BY clause verbatim, so anything not in sortable is dropped.
func (ord *Ordering) Bind(ctx echo.Context, sortable ...string) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !isSortable(field, sortable) {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func isSortable(field string, sortable []string) bool {
	for _, col := range sortable {
		if field == col {
			return true
		}
	}
	return false
}

type Page struct {
	Pagination core.Pagination
}

func (p *Page) Bind(ctx echo.Context) {
	if limit, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil {
		p.Pagination.Limit = limit
	}
	if offset, err := strconv.Atoi(ctx.QueryParam(offsetParam)); err == nil {
		p.Pagination.Offset = offset
	}
	p.Pagination = p.Pagination.Clean()
}
