package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)

	// writes are staff only
	staff := staffMiddleware()
	ag.POST("", api.mark, staff)
	ag.POST("/bulk", api.markBulk, staff)
	ag.PUT("/:id", api.update, staff)
	ag.DELETE("/:id", api.destroy, staff)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.MarkOne(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) markBulk(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data attendance.BulkRecords
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkRecords")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.MarkBulk(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

// query lists matching records; students are always scoped to their own
// records. When the result is scoped to a single student, a statistics
// summary is included.
func (api *attendanceApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var flt AttendanceFilter
	if err := flt.Bind(ctx); err != nil {
		return err
	}
	if !actor.IsStaff() {
		flt.Filter.StudentID = actor.ID
	}

	recs, err := api.svc.Query(ctx.Request().Context(), flt.Filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}

	if flt.Filter.StudentID != "" {
		stats, err := api.svc.Statistics(ctx.Request().Context(), flt.Filter.StudentID, flt.Filter)
		if err != nil {
			return errors.Wrap(err, "computing attendance statistics")
		}
		return ctx.JSON(http.StatusOK, echo.Map{"records": recs, "statistics": stats})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"records": recs})
}

func (api *attendanceApi) update(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"deleted": true})
}
