package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dealflow/dealflow/internal/models"
	"gorm.io/gorm"
)

// UserService is the credential store.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Authenticate returns the user when the credentials match.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// ValidateCredentials reports whether the credentials match.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) bool {
	_, err := s.Authenticate(ctx, username, password)
	return err == nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, lookupErr("user", id, err)
	}
	return &u, nil
}

// Exists reports whether a user id is still present.
func (s *UserService) Exists(ctx context.Context, id uint) bool {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// CreateUser adds an account. The username is trimmed and must be unique.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	u, err := models.NewUser(username, password)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password of an existing user.
func (s *UserService) ChangePassword(ctx context.Context, username, newPassword string) error {
	if newPassword == "" {
		return &models.ValidationError{Field: "password", Code: "required"}
	}
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error; err != nil {
		return lookupErr("user", username, err)
	}
	if err := u.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&u).Update("password", u.Password).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// EnsureDefaultAdmin creates admin/admin when the store is empty.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := s.CreateUser(ctx, models.DefaultAdminUsername, models.DefaultAdminPassword)
	return err
}
