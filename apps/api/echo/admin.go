package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/user"
)

type (
	adminApi struct {
		users    *user.Service
		courses  *course.Service
		validate *validator.Validate
	}

	adminDashboard struct {
		Courses   []course.Course         `json:"courses"`
		Teachers  []course.TeacherCourses `json:"teachers"`
		Students  []course.CourseStudents `json:"students"`
		WeekStart string                  `json:"week_start"`
	}
)

func registerAdminAPI(e *echo.Echo, jwt, db echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		users:    deps.UserSvc,
		courses:  deps.CourseSvc,
		validate: deps.Validate,
	}

	g := e.Group("/admin", jwt, roleMiddleware(user.RoleAdmin), db)
	g.GET("", api.dashboard)
	g.POST("/courses", api.createCourse)
	g.DELETE("/courses/:id", api.destroyCourse)
	g.POST("/teachers", api.createTeacher)
	g.DELETE("/teachers/:id", api.destroyTeacher)
	g.POST("/students", api.createStudent)
	g.DELETE("/students/:id", api.destroyStudent)
}

// Handlers

func (api *adminApi) dashboard(ctx echo.Context) error {
	rctx, db := ctx.Request().Context(), getDB(ctx)

	courses, err := api.courses.Query(rctx, db)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	teachers, err := api.courses.TeachersWithCourses(rctx, db)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	students, err := api.courses.GroupedStudents(rctx, db)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	return ctx.JSON(http.StatusOK, adminDashboard{
		Courses:   courses,
		Teachers:  teachers,
		Students:  students,
		WeekStart: core.FormatDate(attendance.CurrentWeek().Start),
	})
}

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.courses.Create(ctx.Request().Context(), getDB(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *adminApi) destroyCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.courses.Delete(ctx.Request().Context(), getDB(ctx), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) createTeacher(ctx echo.Context) error {
	var data user.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.users.AddTeacher(ctx.Request().Context(), getDB(ctx), data)
	if err != nil {
		return errors.Wrap(err, "adding teacher")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) destroyTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.users.DeleteTeacher(ctx.Request().Context(), getDB(ctx), id); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) createStudent(ctx echo.Context) error {
	var data course.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.courses.CreateStudent(ctx.Request().Context(), getDB(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *adminApi) destroyStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.courses.DeleteStudent(ctx.Request().Context(), getDB(ctx), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
