package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	pg := app.Group("/polos", jwt)
	pg.GET("", api.queryPolos)
	pg.GET("/:id", api.retrievePolo)

	tg := app.Group("/turmas", jwt)
	tg.GET("", api.queryTurmas)
	tg.POST("", api.createTurma, adminMiddleware())
	tg.GET("/:id", api.retrieveTurma)
}

func (api *schoolApi) queryPolos(ctx echo.Context) error {
	var filter school.PoloFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to school.PoloFilter")
	}
	polos, err := api.svc.QueryPolos(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying polos")
	}
	return ctx.JSON(http.StatusOK, polos)
}

func (api *schoolApi) retrievePolo(ctx echo.Context) error {
	polo, err := api.svc.GetPolo(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding polo")
	}
	return ctx.JSON(http.StatusOK, polo)
}

func (api *schoolApi) queryTurmas(ctx echo.Context) error {
	var filter school.TurmaFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to school.TurmaFilter")
	}
	turmas, err := api.svc.QueryTurmas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying turmas")
	}
	return ctx.JSON(http.StatusOK, turmas)
}

func (api *schoolApi) createTurma(ctx echo.Context) error {
	var data school.NewTurma
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to school.NewTurma")
	}
	turma, err := api.svc.CreateTurma(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating turma")
	}
	return ctx.JSON(http.StatusCreated, turma)
}

func (api *schoolApi) retrieveTurma(ctx echo.Context) error {
	turma, err := api.svc.GetTurma(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding turma")
	}
	return ctx.JSON(http.StatusOK, turma)
}
