package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/user"
)

type sessionApi struct {
	svc      *user.Service
	validate *validator.Validate
	conf     *core.Config
}

func registerSessionAPI(e *echo.Echo, db echo.MiddlewareFunc, svc *user.Service, validate *validator.Validate, conf *core.Config) {
	api := sessionApi{
		svc:      svc,
		validate: validate,
		conf:     conf,
	}

	e.POST("/login", api.login, db)
	e.GET("/logout", api.logout)
}

// Handlers

func (api *sessionApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), getDB(ctx), data.Username, data.Password)
	if err != nil {
		if err == user.ErrAuthenticationFailed {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(GetUserClaims(usr, api.conf), api.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	ctx.SetCookie(newSessionCookie(token, api.conf))
	return ctx.Redirect(http.StatusSeeOther, homePath(usr))
}

func (api *sessionApi) logout(ctx echo.Context) error {
	ctx.SetCookie(expiredSessionCookie())
	return ctx.Redirect(http.StatusSeeOther, "/")
}

// homePath is where a user lands after signing in.
func homePath(usr user.User) string {
	if usr.IsAdmin() {
		return "/admin"
	}
	return "/teacher"
}
