package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mwalimu/sifa/core"
)

// Roles
const (
	RoleTeacher = "teacher"
	RoleHod     = "hod"
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

var (
	AllRoles = []string{RoleTeacher, RoleHod, RoleAdmin, RoleStudent}

	rolePriorities = map[string]int{
		RoleAdmin:   30,
		RoleHod:     20,
		RoleTeacher: 10,
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Head of Department", Value: RoleHod},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Student", Value: RoleStudent},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

// CleanTeacherID normalizes a human-assigned teacher identifier ("t001" -> "T001").
func CleanTeacherID(s string) string {
	return strings.ToUpper(core.CleanString(s))
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	TeacherID    string    `json:"teacher_id"` // human-assigned key, e.g. "T001"
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Designation  string    `json:"designation"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
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

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsHod() bool     { return u.Role == RoleHod }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	TeacherID       string `json:"teacher_id" validate:"required,min=2,alphanum_"`
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone"`
	Designation     string `json:"designation"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"omitempty,validrole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc ServiceInterface) error {
	nu.TeacherID = CleanTeacherID(nu.TeacherID)
	nu.Name = core.CleanString(nu.Name)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Designation = core.CleanString(nu.Designation)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleTeacher // admin-created accounts default to teacher
	}

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.TeacherID)
}

// UpdateUser defines what information may be provided to modify an existing User's profile.
type UpdateUser struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func (uu *UpdateUser) Validate(origUsr User) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	phone := core.CleanString(uu.Phone)
	if phone != "" {
		uu.Phone = phone
	} else {
		uu.Phone = origUsr.Phone
	}

	desig := core.CleanString(uu.Designation)
	if desig != "" {
		uu.Designation = desig
	} else {
		uu.Designation = origUsr.Designation
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	return core.Validate.Struct(uu)
}

// ChangePassword carries a password change request for the authenticated User.
type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=NewPassword"`
}

func (cp ChangePassword) Validate() error { return core.Validate.Struct(cp) }

// SetUserRole carries a role change request for a target User.
type SetUserRole struct {
	Role string `json:"role" validate:"required,validrole"`
}

func (sr *SetUserRole) Validate() error {
	sr.Role = core.CleanString(sr.Role, true /* lower */)
	return core.Validate.Struct(sr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && len(qf.Roles) == 0 && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User by one of its unique keys.
type GetFilter struct {
	ID        string
	TeacherID string
}
