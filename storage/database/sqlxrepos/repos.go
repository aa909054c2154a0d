// Package sqlxrepos implements the core repositories over sqlx. Queries are written
// with '?' placeholders and rebound for the driver of the executor they run on.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

// trapNoRowsErr maps the "no rows" err to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func insertReturningID(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int, error) {
	var id int
	if err := exec.QueryRowxContext(ctx, exec.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func execRebind(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) error {
	_, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	return err
}
