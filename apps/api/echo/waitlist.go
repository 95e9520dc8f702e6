package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/waitlist"
)

type waitlistApi struct {
	svc *waitlist.Service
}

func registerWaitlistAPI(app *echo.Echo, jwt echo.MiddlewareFunc, svc *waitlist.Service) {
	api := waitlistApi{svc: svc}

	g := app.Group("/lista-espera")

	// un-authed endpoints
	g.POST("/cadastrar", api.signUp)

	// authed endpoints
	g.GET("", api.query, jwt)
	g.POST("/notificar", api.notify, jwt, adminMiddleware())
}

func (api *waitlistApi) signUp(ctx echo.Context) error {
	var data waitlist.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to waitlist.NewEntry")
	}
	res, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up to waitlist")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *waitlistApi) query(ctx echo.Context) error {
	var filter waitlist.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to waitlist.QueryFilter")
	}
	entries, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying waitlist")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *waitlistApi) notify(ctx echo.Context) error {
	n, err := api.svc.NotifyPending(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "notifying waitlist")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Message: "Notificações enviadas.", Total: n})
}
