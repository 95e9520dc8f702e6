package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/report"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	g := app.Group("/relatorios", jwt)
	g.GET("/estatisticas-por-polo", api.statsBySite)
	g.GET("/inadimplencia", api.delinquency)
}

func (api *reportApi) statsBySite(ctx echo.Context) error {
	res, err := api.svc.StatsBySite(ctx.Request().Context(), ctx.QueryParam("periodo"))
	if err != nil {
		return errors.Wrap(err, "building site stats")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reportApi) delinquency(ctx echo.Context) error {
	var filter report.DelinquencyFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to report.DelinquencyFilter")
	}
	res, err := api.svc.Delinquency(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building delinquency report")
	}
	return ctx.JSON(http.StatusOK, res)
}
