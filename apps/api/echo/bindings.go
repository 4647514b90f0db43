package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/grade"
)

var errInvalidDateParam = echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")

type AttendanceFilter struct {
	Filter attendance.QueryFilter
}

func (f *AttendanceFilter) Bind(ctx echo.Context) error {
	if err := ctx.Bind(&f.Filter); err != nil {
		return err
	}
	f.Filter.Clean()

	for _, p := range []struct {
		param string
		dest  *time.Time
	}{
		{"date", &f.Filter.SessionDate},
		{"date_from", &f.Filter.DateFrom},
		{"date_to", &f.Filter.DateTo},
	} {
		val := ctx.QueryParam(p.param)
		if val == "" {
			continue
		}
		date, err := attendance.ParseDate(val)
		if err != nil {
			return errInvalidDateParam
		}
		*p.dest = date
	}
	return nil
}

type GradeFilter struct {
	Filter grade.QueryFilter
}

func (f *GradeFilter) Bind(ctx echo.Context) error {
	if err := ctx.Bind(&f.Filter); err != nil {
		return err
	}
	f.Filter.Clean()
	f.Filter.PublishedOnly = ctx.QueryParam("published") == "true"
	return nil
}
