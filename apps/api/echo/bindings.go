package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/report"
	"github.com/trezcool/classbook/services/document/docx"
	"github.com/trezcool/classbook/services/document/xlsx"
)

const (
	weekStartParam = "start"
	formatParam    = "format"
)

var errUnknownFormat = core.NewValidationError(nil, core.FieldError{Field: formatParam, Error: "format must be docx or xlsx"})

// pathID reads the ":id" path parameter; a malformed id is reported as not found.
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// bindWeek resolves the week from the "start" value, the current week when absent.
func bindWeek(raw string) (attendance.Week, error) {
	start, err := attendance.ParseWeekStart(raw)
	if err != nil {
		return attendance.Week{}, err
	}
	return attendance.ResolveWeek(start, core.Today()), nil
}

// bindRenderer picks the document format, docx unless "xlsx" is asked for.
func bindRenderer(ctx echo.Context) (report.Renderer, error) {
	switch core.CleanString(ctx.QueryParam(formatParam), true /* lower */) {
	case "", "docx":
		return docx.NewRenderer(), nil
	case "xlsx":
		return xlsx.NewRenderer(), nil
	default:
		return nil, errUnknownFormat
	}
}
