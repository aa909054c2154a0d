package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("user not found")
	ErrTeacherNotFound      = core.NewNotFoundError("teacher not found")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrAuthenticationFailed = errors.New("invalid credentials")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, exec core.DBExecutor, usr User) (User, error)
		GetUserByID(ctx context.Context, exec core.DBExecutor, id int) (User, error)
		GetUserByUsername(ctx context.Context, exec core.DBExecutor, username string) (User, error)
		// QueryUsers returns users having one of roles (all users if none), ordered by last then first name.
		QueryUsers(ctx context.Context, exec core.DBExecutor, roles ...string) ([]User, error)
		UpdateUser(ctx context.Context, exec core.DBExecutor, usr User) (User, error)
		DeleteUser(ctx context.Context, exec core.DBExecutor, id int) error
	}

	// CourseAssigner links teachers to courses; satisfied by *course.Service.
	CourseAssigner interface {
		Assign(ctx context.Context, exec core.DBExecutor, teacherID, courseID int) error
		UnassignAll(ctx context.Context, exec core.DBExecutor, teacherID int) error
	}

	Service struct {
		repo    Repository
		courses CourseAssigner
	}
)

func NewService(repo Repository, courses CourseAssigner) *Service {
	return &Service{repo: repo, courses: courses}
}

// Create adds a user; the username must be free.
func (svc *Service) Create(ctx context.Context, db core.DB, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUserByUsername(ctx, db, nu.Username); err == nil {
		return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	} else if err != ErrNotFound {
		return User{}, errors.Wrap(err, "checking username")
	}

	usr := User{
		Username:  nu.Username,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Role:      nu.Role,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, db, usr)
	return usr, errors.Wrap(err, "creating user")
}

func (svc *Service) GetByID(ctx context.Context, db core.DB, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, db, id)
}

func (svc *Service) GetByUsername(ctx context.Context, db core.DB, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, db, core.CleanString(uname, true /* lower */))
}

// Authenticate returns the user matching the credentials or ErrAuthenticationFailed.
func (svc *Service) Authenticate(ctx context.Context, db core.DB, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, db, uname)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	return usr, nil
}

// AddTeacher registers the teacher unless the username is taken, in which case
// that user is reused, then assigns them the course.
func (svc *Service) AddTeacher(ctx context.Context, db core.DB, nt NewTeacher) (User, error) {
	var usr User
	err := core.InTx(ctx, db, func(tx core.DBExecutor) error {
		var err error
		usr, err = svc.repo.GetUserByUsername(ctx, tx, nt.Username)
		switch {
		case err == ErrNotFound:
			usr = User{
				Username:  nt.Username,
				FirstName: nt.FirstName,
				LastName:  nt.LastName,
				Role:      RoleTeacher,
				Profile:   nt.Profile,
			}
			if err = usr.SetPassword(nt.Password); err != nil {
				return errors.Wrap(err, "setting password")
			}
			if usr, err = svc.repo.CreateUser(ctx, tx, usr); err != nil {
				return errors.Wrap(err, "creating teacher")
			}
		case err != nil:
			return errors.Wrap(err, "finding user by username")
		}
		return svc.courses.Assign(ctx, tx, usr.ID, nt.CourseID)
	})
	return usr, err
}

func (svc *Service) Teachers(ctx context.Context, db core.DB) ([]User, error) {
	return svc.repo.QueryUsers(ctx, db, RoleTeacher)
}

// DeleteTeacher removes the teacher and their course assignments.
func (svc *Service) DeleteTeacher(ctx context.Context, db core.DB, id int) error {
	usr, err := svc.repo.GetUserByID(ctx, db, id)
	if err != nil {
		if err == ErrNotFound {
			return ErrTeacherNotFound
		}
		return errors.Wrap(err, "finding teacher")
	}
	if !usr.IsTeacher() {
		return ErrTeacherNotFound
	}
	return core.InTx(ctx, db, func(tx core.DBExecutor) error {
		if err := svc.courses.UnassignAll(ctx, tx, id); err != nil {
			return errors.Wrap(err, "removing assignments")
		}
		return errors.Wrap(svc.repo.DeleteUser(ctx, tx, id), "deleting teacher")
	})
}

// EnsureAdmin creates the default admin when no admin exists yet.
// It reports whether a user was created.
func (svc *Service) EnsureAdmin(ctx context.Context, db core.DB, uname, pwd string) (bool, error) {
	admins, err := svc.repo.QueryUsers(ctx, db, RoleAdmin)
	if err != nil {
		return false, errors.Wrap(err, "querying admins")
	}
	if len(admins) > 0 {
		return false, nil
	}
	usr := User{
		Username:  core.CleanString(uname, true /* lower */),
		FirstName: "Admin",
		LastName:  "Admin",
		Role:      RoleAdmin,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return false, errors.Wrap(err, "setting password")
	}
	if _, err = svc.repo.CreateUser(ctx, db, usr); err != nil {
		return false, errors.Wrap(err, "creating admin")
	}
	return true, nil
}

func (svc *Service) ResetPassword(ctx context.Context, db core.DB, uname, pwd string) error {
	usr, err := svc.GetByUsername(ctx, db, uname)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	_, err = svc.repo.UpdateUser(ctx, db, usr)
	return errors.Wrap(err, "updating user")
}
