package models

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleTeacher     Role = "teacher"
	RoleStudent     Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleCoordinator, RoleTeacher, RoleStudent}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	ID               string    `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	FullName         string    `json:"fullName" db:"full_name"`
	PasswordHash     []byte    `json:"-" db:"password_hash"`
	Role             Role      `json:"role" db:"role"`
	EnrollmentNumber *string   `json:"enrollmentNumber,omitempty" db:"enrollment_number"`
	Department       *string   `json:"department,omitempty" db:"department"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
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

func (u *User) Is(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

type UserFilter struct {
	Role   *Role
	Search string
	Limit  int
	Offset int
}

type UsersResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
