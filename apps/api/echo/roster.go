package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/roster"
)

type rosterApi struct {
	svc *roster.Service
}

func registerRosterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *roster.Service) {
	api := rosterApi{svc: svc}

	cg := g.Group("/classes", jwt)
	cg.GET("/:id/roster", api.roster, staffMiddleware())
}

// Handlers

func (api *rosterApi) roster(ctx echo.Context) error {
	classID := ctx.Param("id")

	cls, err := api.svc.GetClass(ctx.Request().Context(), classID)
	if err != nil {
		return err
	}
	studentIDs, err := api.svc.Resolve(ctx.Request().Context(), classID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"class":       cls,
		"student_ids": studentIDs,
	})
}
