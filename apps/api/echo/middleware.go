package echoapi

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

const contextDBKey = "db"

// roleMiddleware lets through users holding one of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errForbiddenRole
		}
	}
}

// dbMiddleware pins one pooled connection to the request and releases it once the handler returns.
func dbMiddleware(pool *sqlx.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			conn, err := pool.Connx(ctx.Request().Context())
			if err != nil {
				if isPoolClosed(err) {
					return core.NewShutdownError("database handle lost: " + err.Error())
				}
				return errors.Wrap(err, "acquiring database connection")
			}
			defer func() { _ = conn.Close() }()

			ctx.Set(contextDBKey, conn)
			return next(ctx)
		}
	}
}

// isPoolClosed reports whether the pool itself is gone; database/sql reports a
// closed pool with an unexported error.
func isPoolClosed(err error) bool {
	return errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed")
}

func getDB(ctx echo.Context) core.DB {
	return ctx.Get(contextDBKey).(*sqlx.Conn)
}
