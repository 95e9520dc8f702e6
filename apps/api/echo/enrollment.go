package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
)

type enrollmentApi struct {
	svc *enrollment.Service
}

func registerEnrollmentAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *enrollment.Service) {
	api := enrollmentApi{svc: svc}

	pg := app.Group("/pre-matriculas")

	// un-authed endpoints
	pg.POST("", api.createPreMatricula)

	// authed endpoints
	pg.GET("", api.queryPreMatriculas, jwt)
	pg.GET("/:id", api.retrievePreMatricula, jwt)
	pg.PATCH("/:id/status", api.updateStatus, jwt)
	pg.PUT("/:id/status", api.updateStatusLegacy, jwt)
	pg.POST("/:id/concluir", api.conclude, jwt)

	app.GET("/matriculas", api.queryMatriculas, jwt)
}

func (api *enrollmentApi) createPreMatricula(ctx echo.Context) error {
	var data enrollment.NewPreMatricula
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollment.NewPreMatricula")
	}
	pm, err := api.svc.CreatePreMatricula(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating pre-matricula")
	}
	return ctx.JSON(http.StatusCreated, pm)
}

func (api *enrollmentApi) queryPreMatriculas(ctx echo.Context) error {
	var filter enrollment.PreMatriculaFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to enrollment.PreMatriculaFilter")
	}
	pms, err := api.svc.QueryPreMatriculas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying pre-matriculas")
	}
	return ctx.JSON(http.StatusOK, pms)
}

func (api *enrollmentApi) retrievePreMatricula(ctx echo.Context) error {
	pm, err := api.svc.GetPreMatricula(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding pre-matricula")
	}
	return ctx.JSON(http.StatusOK, pm)
}

func (api *enrollmentApi) updateStatus(ctx echo.Context) error {
	var data enrollment.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollment.StatusUpdate")
	}
	pm, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "updating pre-matricula status")
	}
	return ctx.JSON(http.StatusOK, pm)
}

// updateStatusLegacy serves the old PUT route.
//
// Deprecated: clients should use PATCH /pre-matriculas/:id/status.
func (api *enrollmentApi) updateStatusLegacy(ctx echo.Context) error {
	ctx.Response().Header().Set("Deprecation", "true")
	return api.updateStatus(ctx)
}

func (api *enrollmentApi) conclude(ctx echo.Context) error {
	var data enrollment.ConcludeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollment.ConcludeRequest")
	}
	res, err := api.svc.Conclude(ctx.Request().Context(), ctx.Param("id"), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "concluding pre-matricula")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *enrollmentApi) queryMatriculas(ctx echo.Context) error {
	var filter enrollment.MatriculaFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to enrollment.MatriculaFilter")
	}
	ms, err := api.svc.QueryMatriculas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying matriculas")
	}
	return ctx.JSON(http.StatusOK, ms)
}
