package echoapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/grade"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/services/metrics"
)

type (
	teacherApi struct {
		courses    *course.Service
		grades     *grade.Service
		attendance *attendance.Service
	}

	teacherDashboard struct {
		Courses []course.Course `json:"courses"`
		Today   string          `json:"today"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func registerTeacherAPI(e *echo.Echo, jwt, db echo.MiddlewareFunc, deps ServerDeps) {
	api := teacherApi{
		courses:    deps.CourseSvc,
		grades:     deps.GradeSvc,
		attendance: deps.AttendanceSvc,
	}

	g := e.Group("/teacher", jwt, roleMiddleware(user.RoleTeacher), db)
	g.GET("", api.dashboard)

	cg := g.Group("/courses/:id")
	cg.GET("/grades", api.courseGrades)
	cg.POST("/grades", api.submitGrades)
	cg.GET("/attendance", api.weekView)
	cg.POST("/attendance", api.recordWeek)
}

// AttendancePath is the week view of the course starting at weekStart.
func AttendancePath(courseID int, week attendance.Week) string {
	q := make(url.Values)
	q.Set(weekStartParam, core.FormatDate(week.Start))
	return fmt.Sprintf("/teacher/courses/%d/attendance?%s", courseID, q.Encode())
}

// Handlers

func (api *teacherApi) dashboard(ctx echo.Context) error {
	teacherID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	courses, err := api.courses.TeacherCourses(ctx.Request().Context(), getDB(ctx), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying teacher courses")
	}
	return ctx.JSON(http.StatusOK, teacherDashboard{Courses: courses, Today: core.FormatDate(core.Today())})
}

func (api *teacherApi) courseGrades(ctx echo.Context) error {
	courseID, err := pathID(ctx)
	if err != nil {
		return err
	}
	cg, err := api.grades.CourseGrades(ctx.Request().Context(), getDB(ctx), courseID)
	if err != nil {
		return errors.Wrap(err, "listing course grades")
	}
	return ctx.JSON(http.StatusOK, cg)
}

func (api *teacherApi) submitGrades(ctx echo.Context) error {
	courseID, err := pathID(ctx)
	if err != nil {
		return err
	}
	teacherID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}

	res, err := api.grades.SubmitGrades(ctx.Request().Context(), getDB(ctx), courseID, teacherID, grade.ParseEntries(form))
	metrics.GradesRecorded.Add(float64(res.Recorded))
	metrics.GradesSkipped.Add(float64(res.Skipped))
	if err != nil {
		return errors.Wrap(err, "submitting grades")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Grades saved successfully"})
}

func (api *teacherApi) weekView(ctx echo.Context) error {
	courseID, err := pathID(ctx)
	if err != nil {
		return err
	}
	teacherID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	week, err := bindWeek(ctx.QueryParam(weekStartParam))
	if err != nil {
		return err
	}

	view, err := api.attendance.WeekView(ctx.Request().Context(), getDB(ctx), courseID, teacherID, week)
	if err != nil {
		return errors.Wrap(err, "loading attendance week")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *teacherApi) recordWeek(ctx echo.Context) error {
	courseID, err := pathID(ctx)
	if err != nil {
		return err
	}
	teacherID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	week, err := bindWeek(form.Get(weekStartParam))
	if err != nil {
		return err
	}

	err = api.attendance.RecordWeek(ctx.Request().Context(), getDB(ctx), courseID, teacherID, week, attendance.ParseMarks(form))
	if err != nil {
		return errors.Wrap(err, "recording attendance week")
	}
	metrics.AttendanceWeeksRecorded.Inc()
	return ctx.Redirect(http.StatusSeeOther, AttendancePath(courseID, week))
}
