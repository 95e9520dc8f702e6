package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/audit"
)

type auditApi struct {
	repo audit.Repository
}

func registerAuditAPI(app *echo.Echo, jwt echo.MiddlewareFunc, repo audit.Repository) {
	api := auditApi{repo: repo}
	app.GET("/auditoria", api.query, jwt, adminMiddleware())
}

func (api *auditApi) query(ctx echo.Context) error {
	var filter audit.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to audit.QueryFilter")
	}
	filter.Clean()
	entries, err := api.repo.QueryEntries(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying audit log")
	}
	return ctx.JSON(http.StatusOK, entries)
}
