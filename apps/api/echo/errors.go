package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errForbiddenRole = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errInvalidID     = core.NewNotFoundError("not found")
)

// isAuthFailure reports whether err means the session is missing, invalid or lacks the role.
func isAuthFailure(err *echo.HTTPError) bool {
	return err == middleware.ErrJWTMissing || err == errForbiddenRole || err.Code == http.StatusUnauthorized
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if isAuthFailure(origErr) {
				sendResponse(ctx, ctx.Redirect(http.StatusSeeOther, "/"))
				return
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.NotFoundError:
			sendResponse(ctx, ctx.String(http.StatusNotFound, origErr.Message))
			return
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID, _ = claims.UserID()
				usr.Username = claims.Username
				usr.Role = claims.Role
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Request().Method == http.MethodHead { // Issue #608
			sendResponse(ctx, ctx.NoContent(code))
		} else {
			sendResponse(ctx, ctx.JSON(code, message))
		}
	}
}

func sendResponse(ctx echo.Context, err error) {
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
