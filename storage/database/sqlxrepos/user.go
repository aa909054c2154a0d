package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/user"
)

const userColumns = "id, username, first_name, last_name, role, password_hash, profile"

type UserRepository struct{}

var _ user.Repository = (*UserRepository)(nil) // interface compliance check

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (repo UserRepository) CreateUser(ctx context.Context, exec core.DBExecutor, usr user.User) (user.User, error) {
	id, err := insertReturningID(ctx, exec,
		`INSERT INTO users (username, first_name, last_name, role, password_hash, profile)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		usr.Username, usr.FirstName, usr.LastName, usr.Role, usr.PasswordHash, usr.Profile,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo UserRepository) GetUserByID(ctx context.Context, exec core.DBExecutor, id int) (user.User, error) {
	var usr user.User
	err := exec.GetContext(ctx, &usr, exec.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return usr, nil
}

func (repo UserRepository) GetUserByUsername(ctx context.Context, exec core.DBExecutor, username string) (user.User, error) {
	var usr user.User
	err := exec.GetContext(ctx, &usr, exec.Rebind("SELECT "+userColumns+" FROM users WHERE username = ?"), username)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by username")
	}
	return usr, nil
}

func (repo UserRepository) QueryUsers(ctx context.Context, exec core.DBExecutor, roles ...string) ([]user.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	var args []interface{}
	if len(roles) > 0 {
		var err error
		query, args, err = sqlx.In(query+" WHERE role IN (?)", roles)
		if err != nil {
			return nil, errors.Wrap(err, "expanding roles")
		}
	}
	query += " ORDER BY last_name, first_name, id"

	users := make([]user.User, 0)
	if err := exec.SelectContext(ctx, &users, exec.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo UserRepository) UpdateUser(ctx context.Context, exec core.DBExecutor, usr user.User) (user.User, error) {
	err := execRebind(ctx, exec,
		`UPDATE users SET username = ?, first_name = ?, last_name = ?, role = ?, password_hash = ?, profile = ?
		WHERE id = ?`,
		usr.Username, usr.FirstName, usr.LastName, usr.Role, usr.PasswordHash, usr.Profile, usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo UserRepository) DeleteUser(ctx context.Context, exec core.DBExecutor, id int) error {
	return errors.Wrap(execRebind(ctx, exec, "DELETE FROM users WHERE id = ?", id), "deleting user")
}
