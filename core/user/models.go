package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
)

type User struct {
	ID           int64       `json:"id" db:"id"`
	Email        string      `json:"email" db:"email"`
	Firstname    string      `json:"firstname" db:"firstname"`
	Role         string      `json:"role" db:"role"`
	Class        null.String `json:"class" db:"class"`
	Subject      null.String `json:"subject" db:"subject"` // teachers only
	PasswordHash string      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

func (u *User) Identity() access.Identity {
	return access.Identity{UserID: u.ID, Role: u.Role}
}

func (u *User) IsAdmin() bool   { return u.Role == access.RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == access.RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == access.RoleStudent }

// Subject is the one subject a teacher teaches.
type Subject struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	TeacherID int64  `json:"-" db:"teacher_id"`
}

// Student is the roster view of a student.
type Student struct {
	ID        int64  `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	Firstname string `json:"firstname" db:"firstname"`
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email     string `json:"email" validate:"required,email"`
	Firstname string `json:"firstname" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,role"`
	Class     string `json:"class"`   // students only
	Subject   string `json:"subject"` // teachers only
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Firstname = core.CleanString(nu.Firstname)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Class = core.CleanString(nu.Class)
	nu.Subject = core.CleanString(nu.Subject)
}

type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// newPassword is checked against the password policy once the current password is verified.
type newPassword struct {
	Password  string `json:"newPassword"`
	Firstname string `json:"-"`
	Email     string `json:"-"`
}

// GetFilter selects a single User; zero fields are ignored.
type GetFilter struct {
	ID    int64
	Email string
	Role  string
	Class string
}

// OrderingFields are the columns users can be ordered by.
var OrderingFields = map[string]bool{
	"id": true, "email": true, "firstname": true, "role": true, "class": true, "created_at": true,
}

// QueryFilter applies AND operation on its non-empty fields.
type QueryFilter struct {
	Role  string `query:"role"`
	Class string `query:"class"`
}

func (qf *QueryFilter) Clean() {
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.Class = core.CleanString(qf.Class)
}
