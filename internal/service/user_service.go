package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ticketing-backend/internal/logging"
	"cinema-ticketing-backend/internal/models"
	"cinema-ticketing-backend/internal/repository"
)

type userAdminStore interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	UpdateUserProfile(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error)
}

type auditReader interface {
	auditLogger
	ListAuditLogs(ctx context.Context, userID uint) ([]models.AuditLog, error)
}

// UserService backs the admin-only user management routes
type UserService struct {
	users userAdminStore
	audit auditReader
}

func NewUserService(users userAdminStore, audit auditReader) *UserService {
	return &UserService{users: users, audit: audit}
}

// ListUsers returns the public fields of every user
func (s *UserService) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user with its role record and session
func (s *UserService) DeleteUser(ctx context.Context, actorID, id uint) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := s.audit.CreateAuditLog(ctx, &actorID, models.AuditUserDeleted, fmt.Sprintf("User %d deleted", id)); err != nil {
		logging.FromContext(ctx).Warn("failed to write audit log", "action", models.AuditUserDeleted, "error", err)
	}
	return nil
}

// AuditTrail returns the audit entries recorded for a user
func (s *UserService) AuditTrail(ctx context.Context, id uint) ([]models.AuditLog, error) {
	logs, err := s.audit.ListAuditLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// UpdateUserInput holds the profile fields an admin may change. Nil fields are left as they are.
type UpdateUserInput struct {
	FirstName   *string
	LastName    *string
	Gender      *string
	DateOfBirth *time.Time
	Address     *string
	ZipCode     *string
	City        *string
	PhoneNumber *string
	CinemaID    *uint
}

func (in UpdateUserInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if in.FirstName != nil {
		cols["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		cols["last_name"] = *in.LastName
	}
	if in.Gender != nil {
		cols["gender"] = in.Gender
	}
	if in.DateOfBirth != nil {
		cols["date_of_birth"] = in.DateOfBirth
	}
	if in.Address != nil {
		cols["address"] = in.Address
	}
	if in.ZipCode != nil {
		cols["zip_code"] = in.ZipCode
	}
	if in.City != nil {
		cols["city"] = in.City
	}
	if in.PhoneNumber != nil {
		cols["phone_number"] = in.PhoneNumber
	}
	if in.CinemaID != nil {
		cols["cinema_id"] = in.CinemaID
	}
	return cols
}

// UpdateUser edits a user's profile fields. Username, role and password are not editable here.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id uint, in UpdateUserInput) (*models.User, error) {
	cols := in.columns()
	if len(cols) == 0 {
		return nil, ErrNothingToUpdate
	}

	user, err := s.users.UpdateUserProfile(ctx, id, cols)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := s.audit.CreateAuditLog(ctx, &actorID, models.AuditUserUpdated, fmt.Sprintf("User %d updated", id)); err != nil {
		logging.FromContext(ctx).Warn("failed to write audit log", "action", models.AuditUserUpdated, "error", err)
	}
	return user, nil
}
