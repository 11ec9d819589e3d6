package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/pkg/firebase"
	"github.com/gronit/club-portal/pkg/logger"
)

// UserDirectory is the identity provider holding admin accounts
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]firebase.User, error)
	CreateUser(ctx context.Context, email string) (*firebase.User, error)
	DeleteUser(ctx context.Context, uid string) error
}

// adminService implements the AdminService interface
type adminService struct {
	directory UserDirectory
}

// NewAdminService creates a new AdminService
func NewAdminService(directory UserDirectory) AdminService {
	return &adminService{directory: directory}
}

// ListAdmins returns every account in the directory
func (s *adminService) ListAdmins(ctx context.Context) ([]*domain.AdminUser, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	admins := make([]*domain.AdminUser, len(users))
	for i := range users {
		admins[i] = toAdminUser(&users[i])
	}
	return admins, nil
}

// AddAdmin creates an account for email
func (s *adminService) AddAdmin(ctx context.Context, email string) (*domain.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalidInput("email is required")
	}

	user, err := s.directory.CreateUser(ctx, email)
	if err != nil {
		if errors.Is(err, firebase.ErrEmailExists) {
			return nil, ErrAdminAlreadyExists
		}
		return nil, err
	}

	logger.InfoCtx(ctx, "admin user added", zap.String("uid", user.UID), zap.String("email", email))
	return toAdminUser(user), nil
}

// RemoveAdmin deletes an account by uid
func (s *adminService) RemoveAdmin(ctx context.Context, uid string) error {
	if strings.TrimSpace(uid) == "" {
		return ErrAdminNotFound
	}
	if err := s.directory.DeleteUser(ctx, uid); err != nil {
		if errors.Is(err, firebase.ErrUserNotFound) {
			return ErrAdminNotFound
		}
		return err
	}

	logger.InfoCtx(ctx, "admin user removed", zap.String("uid", uid))
	return nil
}

func toAdminUser(u *firebase.User) *domain.AdminUser {
	return &domain.AdminUser{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Disabled:    u.Disabled,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
