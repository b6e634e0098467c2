package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the closed set of account roles. Self-registration always yields
// RoleStudent; teacher and admin accounts are created only by an admin.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// StandardRoles is the recovery scope for the student/teacher reset flow.
var StandardRoles = []Role{RoleStudent, RoleTeacher}

// AdminRoles is the recovery scope for the admin reset flow.
var AdminRoles = []Role{RoleAdmin}

// User represents an account in the library catalog.
//
// ResetTokenHash and ResetTokenExpiresAt are both nil or both set; a user has
// at most one outstanding recovery token and issuing a new one overwrites the
// previous pair.
type User struct {
	ID            bson.ObjectID `bson:"_id,omitempty"        json:"id"`
	Name          string        `bson:"name"                 json:"name"`
	Email         string        `bson:"email"                json:"email"`
	PasswordHash  string        `bson:"password_hash"        json:"-"`
	Role          Role          `bson:"role"                 json:"role"`
	PhoneNumber   string        `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	BranchID      string        `bson:"branch_id,omitempty"  json:"branch_id,omitempty"`
	Year          string        `bson:"year,omitempty"       json:"year,omitempty"`
	StudentCode   string        `bson:"student_code,omitempty" json:"student_code,omitempty"`
	EmailVerified bool          `bson:"email_verified"       json:"email_verified"`

	ResetTokenHash      *string    `bson:"reset_token_hash,omitempty"       json:"-"`
	ResetTokenExpiresAt *time.Time `bson:"reset_token_expires_at,omitempty" json:"-"`

	LoginCount  int64      `bson:"login_count"             json:"login_count"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"              json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"              json:"updated_at"`
}
