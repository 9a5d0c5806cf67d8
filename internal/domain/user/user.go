package user

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary is the owner reference embedded in product responses.
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NewUser is what a repository needs to insert a row.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// Changes is a partial update; nil fields are left untouched.
type Changes struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.PasswordHash == nil
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,bcryptlen,strongpassword"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// UpdateRequest backs both profile and by-id updates; at least one field must be present.
type UpdateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=50,personname"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,bcryptlen,strongpassword"`
}

func (r *UpdateRequest) Normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Email != nil {
		e := NormalizeEmail(*r.Email)
		r.Email = &e
	}
}

func (r UpdateRequest) HasChanges() bool {
	return r.Name != nil || r.Email != nil || r.Password != nil
}

// NormalizeEmail trims and lowercases so lookups and the unique index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
