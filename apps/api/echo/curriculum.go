package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/curriculum"
)

type curriculumApi struct {
	svc *curriculum.Service
}

func registerCurriculumAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *curriculum.Service) {
	api := curriculumApi{svc: svc}
	admin := adminMiddleware()

	mg := app.Group("/modulos", jwt)
	mg.GET("", api.queryModulos)
	mg.POST("", api.createModulo, admin)
	mg.GET("/ativo", api.activeCycle)
	mg.GET("/:id", api.retrieveModulo)
	mg.PUT("/:id", api.updateModulo, admin)
	mg.DELETE("/:id", api.deleteModulo, admin)

	lg := app.Group("/licoes", jwt)
	lg.GET("", api.queryLicoes)
	lg.POST("", api.createLicao, admin)
	lg.GET("/:id", api.retrieveLicao)
	lg.PUT("/:id", api.updateLicao, admin)
	lg.DELETE("/:id", api.deleteLicao, admin)
}

func (api *curriculumApi) queryModulos(ctx echo.Context) error {
	modulos, err := api.svc.QueryModulos(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying modulos")
	}
	return ctx.JSON(http.StatusOK, modulos)
}

func (api *curriculumApi) createModulo(ctx echo.Context) error {
	var data curriculum.NewModulo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to curriculum.NewModulo")
	}
	m, err := api.svc.CreateModulo(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating modulo")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *curriculumApi) activeCycle(ctx echo.Context) error {
	m, err := api.svc.GetActiveCycle(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "finding active cycle")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *curriculumApi) retrieveModulo(ctx echo.Context) error {
	m, err := api.svc.GetModulo(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding modulo")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *curriculumApi) updateModulo(ctx echo.Context) error {
	var data curriculum.UpdateModulo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to curriculum.UpdateModulo")
	}
	m, err := api.svc.UpdateModulo(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating modulo")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *curriculumApi) deleteModulo(ctx echo.Context) error {
	if err := api.svc.DeleteModulo(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting modulo")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) queryLicoes(ctx echo.Context) error {
	licoes, err := api.svc.QueryLicoes(ctx.Request().Context(), ctx.QueryParam("modulo_id"))
	if err != nil {
		return errors.Wrap(err, "querying licoes")
	}
	return ctx.JSON(http.StatusOK, licoes)
}

func (api *curriculumApi) createLicao(ctx echo.Context) error {
	var data curriculum.NewLicao
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to curriculum.NewLicao")
	}
	l, err := api.svc.CreateLicao(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating licao")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *curriculumApi) retrieveLicao(ctx echo.Context) error {
	l, err := api.svc.GetLicao(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding licao")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *curriculumApi) updateLicao(ctx echo.Context) error {
	var data curriculum.UpdateLicao
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to curriculum.UpdateLicao")
	}
	l, err := api.svc.UpdateLicao(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating licao")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *curriculumApi) deleteLicao(ctx echo.Context) error {
	if err := api.svc.DeleteLicao(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting licao")
	}
	return ctx.NoContent(http.StatusNoContent)
}
