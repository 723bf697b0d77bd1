package models

import (
	"fmt"
	"net/mail"
	"strings"
)

// Role is a coarse permission level attached to a [User].
type Role string

const (
	RoleLearner Role = "learner"
	RoleAdmin   Role = "admin"
)

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleLearner, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is a learner or administrator account.
type User struct {
	entity
	email string
	name  string
	role  Role
}

// NewUser creates a learner with the given sequence, email and display name.
func NewUser(sequence int, email, name string) *User {
	return &User{entity: newEntity(sequence), email: email, name: name, role: RoleLearner}
}

func (u *User) Email() string     { return u.email }
func (u *User) Name() string      { return u.name }
func (u *User) Role() Role        { return u.role }
func (u *User) SetRole(r Role)    { u.role = r }
func (u *User) SetName(n string)  { u.name = n }
func (u *User) SetEmail(e string) { u.email = e }
func (u *User) IsAdmin() bool     { return u.role == RoleAdmin }
func (u *User) DisplayName() string {
	if u.name != "" {
		return u.name
	}
	return u.email
}

// Validate checks the email address and role.
func (u *User) Validate() error {
	if u.email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(u.email); err != nil {
		return fmt.Errorf("invalid email %q: %w", u.email, err)
	}
	if _, err := ParseRole(string(u.role)); err != nil {
		return err
	}
	return nil
}
