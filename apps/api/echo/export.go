package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/report"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/services/metrics"
)

type exportApi struct {
	svc *report.Service
}

func registerExportAPI(e *echo.Echo, jwt, db echo.MiddlewareFunc, svc *report.Service) {
	api := exportApi{svc: svc}

	g := e.Group("/export/courses/:id", jwt, roleMiddleware(user.RoleAdmin, user.RoleTeacher), db)
	g.GET("/students", api.roster)
	g.GET("/grades", api.grades)
	g.GET("/attendance", api.attendance)
}

// Handlers

func (api *exportApi) roster(ctx echo.Context) error {
	courseID, rdr, err := bindExport(ctx)
	if err != nil {
		return err
	}
	art, err := api.svc.Roster(ctx.Request().Context(), getDB(ctx), courseID, rdr)
	if err != nil {
		return errors.Wrap(err, "exporting roster")
	}
	return sendArtifact(ctx, report.KindRoster, rdr, art)
}

func (api *exportApi) grades(ctx echo.Context) error {
	courseID, rdr, err := bindExport(ctx)
	if err != nil {
		return err
	}
	art, err := api.svc.Grades(ctx.Request().Context(), getDB(ctx), courseID, rdr)
	if err != nil {
		return errors.Wrap(err, "exporting grades")
	}
	return sendArtifact(ctx, report.KindGrades, rdr, art)
}

func (api *exportApi) attendance(ctx echo.Context) error {
	courseID, rdr, err := bindExport(ctx)
	if err != nil {
		return err
	}
	week, err := bindWeek(ctx.QueryParam(weekStartParam))
	if err != nil {
		return err
	}
	art, err := api.svc.Attendance(ctx.Request().Context(), getDB(ctx), courseID, week, rdr)
	if err != nil {
		return errors.Wrap(err, "exporting attendance")
	}
	return sendArtifact(ctx, report.KindAttendance, rdr, art)
}

func bindExport(ctx echo.Context) (int, report.Renderer, error) {
	courseID, err := pathID(ctx)
	if err != nil {
		return 0, nil, err
	}
	rdr, err := bindRenderer(ctx)
	if err != nil {
		return 0, nil, err
	}
	return courseID, rdr, nil
}

func sendArtifact(ctx echo.Context, kind report.Kind, rdr report.Renderer, art report.Artifact) error {
	metrics.ReportsGenerated.WithLabelValues(string(kind), rdr.Extension()).Inc()
	ctx.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(art.Filename))
	return ctx.Stream(http.StatusOK, art.ContentType, art.Content)
}

// contentDisposition names the attachment with an ASCII fallback and, when the
// name is not plain ASCII, its UTF-8 form (RFC 5987).
func contentDisposition(name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if ascii == name {
		return fmt.Sprintf("attachment; filename=%q", name)
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", ascii, url.PathEscape(name))
}
