package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/grade"
)

type gradeApi struct {
	svc      *grade.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *grade.Service, validate *validator.Validate) {
	api := gradeApi{svc: svc, validate: validate}

	gg := g.Group("/grades", jwt)
	gg.GET("", api.query)

	// writes & aggregates are staff only
	staff := staffMiddleware()
	gg.POST("", api.record, staff)
	gg.POST("/bulk", api.recordBulk, staff)
	gg.PUT("/:id", api.update, staff)
	gg.PATCH("/:id/publish", api.publish, staff)
	gg.PATCH("/publish", api.publishBulk, staff)
	gg.DELETE("/:id", api.destroy, staff)
	gg.GET("/teacher-class/:classId/statistics", api.statistics, staff)
}

// Handlers

func (api *gradeApi) record(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data grade.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.RecordOne(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *gradeApi) recordBulk(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data grade.BulkRecords
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkRecords")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.RecordBulk(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *gradeApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var flt GradeFilter
	if err := flt.Bind(ctx); err != nil {
		return err
	}

	recs, err := api.svc.Query(ctx.Request().Context(), actor, flt.Filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"grades": recs})
}

func (api *gradeApi) update(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data grade.UpdateRecord
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

func (api *gradeApi) publish(ctx echo.Context) error {
	var data struct {
		IsPublished bool `json:"is_published"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding publish flag")
	}

	rec, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"), data.IsPublished)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *gradeApi) publishBulk(ctx echo.Context) error {
	var data grade.PublishRecords
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PublishRecords")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	count, err := api.svc.PublishBulk(ctx.Request().Context(), data.IDs, data.IsPublished)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"updated": count})
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"deleted": true})
}

func (api *gradeApi) statistics(ctx echo.Context) error {
	stats, err := api.svc.Statistics(ctx.Request().Context(), ctx.Param("classId"), ctx.QueryParam("assessment_type"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}
