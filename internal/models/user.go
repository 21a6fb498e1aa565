package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminUsername and DefaultAdminPassword seed an empty credential store.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin"
)

// User is an account of the credential store.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
}

// NewUser trims the username and hashes the password.
func NewUser(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Code: "required"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Code: "required"}
	}
	u := &User{Username: username}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored hash.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
