package echoapi

import (
	"github.com/labstack/echo/v4"
)

// staffMiddleware restricts a route to teacher and admin actors.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return err
			}
			if !actor.IsStaff() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
