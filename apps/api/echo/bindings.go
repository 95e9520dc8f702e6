package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

const orderingParam = "ordering"

// Ordering reads "?ordering=nome,-created_at" into DB orderings; "-" means descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	MessageResponse struct {
		Message string `json:"message"`
	}

	CountResponse struct {
		Message string `json:"message"`
		Total   int    `json:"total"`
	}
)
