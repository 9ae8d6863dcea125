package models

import "time"

// DefaultRole is assigned to every newly created user
const DefaultRole = "user"

// User represents a stored user record
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	Roles        []string
	CreatedAt    time.Time
}

// UserView is the outward representation of a user. It has no password field.
type UserView struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// View converts a stored user into its outward representation
func (u *User) View() UserView {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}

// CreateUserInput is the body of register and create requests
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

// LoginInput is the body of login requests
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register, login and check-token
type AuthResult struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}
