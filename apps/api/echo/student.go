package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
)

type studentApi struct {
	svc *student.Service
}

func registerStudentAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *student.Service) {
	api := studentApi{svc: svc}

	g := app.Group("/alunos", jwt)
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/transferir", api.transfer)
}

func (api *studentApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to student.QueryFilter")
	}
	alunos, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying alunos")
	}
	return ctx.JSON(http.StatusOK, alunos)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	aluno, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding aluno")
	}
	return ctx.JSON(http.StatusOK, aluno)
}

func (api *studentApi) transfer(ctx echo.Context) error {
	var data student.TransferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to student.TransferRequest")
	}
	res, err := api.svc.Transfer(ctx.Request().Context(), ctx.Param("id"), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "transferring aluno")
	}
	return ctx.JSON(http.StatusOK, res)
}
