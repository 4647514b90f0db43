package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/roster"
)

type notificationApi struct {
	svc       *notification.Service
	rosterSvc *roster.Service
	validate  *validator.Validate
}

func registerNotificationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *notification.Service,
	rosterSvc *roster.Service,
	validate *validator.Validate,
) {
	api := notificationApi{svc: svc, rosterSvc: rosterSvc, validate: validate}

	ng := g.Group("/notifications", jwt)
	ng.POST("", api.notify, staffMiddleware())
	ng.GET("", api.query)
	ng.GET("/unread-count", api.unreadCount)
	ng.PATCH("/:id/read", api.markRead)
	ng.PATCH("/read-all", api.markAllRead)
	ng.DELETE("/:id", api.destroy)
}

// NotifyRequest carries an event to fan out. ClassID is a convenience: when
// set, the class's current enrollment is appended to the recipients.
type NotifyRequest struct {
	notification.Event
	ClassID string `json:"class_id"`
}

// Handlers

func (api *notificationApi) notify(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data NotifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotifyRequest")
	}

	if data.ClassID = core.CleanString(data.ClassID); data.ClassID != "" {
		studentIDs, err := api.rosterSvc.Resolve(ctx.Request().Context(), data.ClassID)
		if err != nil {
			return err
		}
		for _, id := range studentIDs {
			data.Recipients = append(data.Recipients, notification.Recipient{ID: id, Type: core.ActorStudent})
		}
	}
	if err := data.Event.Validate(api.validate); err != nil {
		return err
	}

	notifs, err := api.svc.Notify(ctx.Request().Context(), actor, data.Event)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"notified": len(notifs)})
}

func (api *notificationApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	notifs, err := api.svc.Query(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"notifications": notifs})
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	count, err := api.svc.UnreadCount(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"unread_count": count})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	notif, err := api.svc.MarkRead(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.MarkAllRead(ctx.Request().Context(), actor); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"read": true})
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"deleted": true})
}
