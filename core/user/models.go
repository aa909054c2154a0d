package user

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/classbook/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

var AllRoles = []string{RoleAdmin, RoleTeacher}

type User struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Role         string `json:"role" db:"role"`
	Profile      string `json:"profile" db:"profile"`
	PasswordHash []byte `json:"-" db:"password_hash"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// NewTeacher contains information needed to register a teacher and assign them a course.
// An existing username is reused as-is; only the course assignment is added then.
type NewTeacher struct {
	Username  string `json:"username" form:"username" validate:"required,min=3,max=50,alphanum_"`
	FirstName string `json:"first_name" form:"first_name" validate:"required,notblank,max=100"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,notblank,max=100"`
	Password  string `json:"password" form:"password" validate:"required"`
	Profile   string `json:"profile" form:"profile" validate:"max=255"`
	CourseID  int    `json:"course_id" form:"course_id" validate:"required,gt=0"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Username = core.CleanString(nt.Username, true /* lower */)
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Profile = core.CleanString(nt.Profile)
	return validate.Struct(nt)
}

// NewUser is used by the admin CLI to add or update any user.
type NewUser struct {
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role" validate:"required,oneof=admin teacher"`
	Password  string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	return validate.Struct(nu)
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
