package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
)

type billingApi struct {
	svc *billing.Service
}

func registerBillingAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *billing.Service) {
	api := billingApi{svc: svc}

	mg := app.Group("/mensalidades", jwt)
	mg.GET("", api.query)
	mg.POST("/lote", api.generateBatch)
	mg.POST("/lote-alunos", api.generateForStudents)
	mg.GET("/:id", api.retrieve)
	mg.PATCH("/:id/confirmar", api.confirm)
	mg.PATCH("/:id/cancelar", api.cancel)

	cg := app.Group("/configuracoes-financeiras", jwt)
	cg.GET("", api.getConfig)
	cg.PUT("", api.updateConfig, adminMiddleware())
}

func (api *billingApi) generateBatch(ctx echo.Context) error {
	var data billing.BatchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to billing.BatchRequest")
	}
	res, err := api.svc.GenerateBatch(ctx.Request().Context(), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "generating batch")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *billingApi) generateForStudents(ctx echo.Context) error {
	var data billing.StudentBatchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to billing.StudentBatchRequest")
	}
	res, err := api.svc.GenerateForStudents(ctx.Request().Context(), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "generating charges for students")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *billingApi) query(ctx echo.Context) error {
	var filter billing.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to billing.QueryFilter")
	}
	charges, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying charges")
	}
	return ctx.JSON(http.StatusOK, charges)
}

func (api *billingApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding charge")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *billingApi) confirm(ctx echo.Context) error {
	var data billing.ConfirmPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to billing.ConfirmPayment")
	}
	c, err := api.svc.ConfirmPayment(ctx.Request().Context(), ctx.Param("id"), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "confirming payment")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *billingApi) cancel(ctx echo.Context) error {
	var data billing.CancelRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to billing.CancelRequest")
	}
	c, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"), data, contextUserID(ctx))
	if err != nil {
		return errors.Wrap(err, "cancelling charge")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *billingApi) getConfig(ctx echo.Context) error {
	conf, err := api.svc.GetFinancialConfig(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting financial config")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *billingApi) updateConfig(ctx echo.Context) error {
	var data billing.UpdateFinancialConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to billing.UpdateFinancialConfig")
	}
	conf, err := api.svc.UpdateFinancialConfig(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating financial config")
	}
	return ctx.JSON(http.StatusOK, conf)
}
