package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user: not found")
	ErrAlreadyExists = errors.New("user: already exists")
	ErrInvalidRole   = errors.New("user: invalid role")
	ErrMissingField  = errors.New("user: name and email are required")
)

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleSeller, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// New defaults the role to "user" when none is given.
func New(email, name string, role Role) (*User, error) {
	if email == "" || name == "" {
		return nil, ErrMissingField
	}
	if role == "" {
		role = RoleUser
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &User{
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Repository interface {
	Insert(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, email string, role Role) error
}
