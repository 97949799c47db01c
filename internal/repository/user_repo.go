package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-ticketing-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateUser  = errors.New("username already exists")
	ErrDuplicatePhone = errors.New("phone number already exists")
	ErrInvalidRole    = errors.New("invalid role")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindUserByUsername finds a user by exact, case-sensitive username
func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// MySQL's default collation compares case-insensitively
	if user.Username != username {
		return nil, ErrNotFound
	}
	return &user, nil
}

// FindUserByID finds a user by primary key
func (r *UserRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUserWithRole inserts the user and the satellite record matching its role
// in one transaction. Either both rows exist afterwards or neither does.
func (r *UserRepository) CreateUserWithRole(ctx context.Context, user *models.User) error {
	if !models.IsValidRole(user.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, user.Role)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&taken).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken > 0 {
			return ErrDuplicateUser
		}
		if user.PhoneNumber != nil {
			if err := tx.Model(&models.User{}).Where("phone_number = ?", *user.PhoneNumber).Count(&taken).Error; err != nil {
				return fmt.Errorf("failed to check phone number: %w", err)
			}
			if taken > 0 {
				return ErrDuplicatePhone
			}
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		switch user.Role {
		case models.RoleAdmin:
			admin := &models.Admin{UserID: user.ID, Responsibility: models.DefaultAdminResponsibility}
			if err := tx.Create(admin).Error; err != nil {
				return fmt.Errorf("failed to create admin record: %w", err)
			}
		case models.RoleClient:
			client := &models.Client{UserID: user.ID, Status: models.DefaultClientStatus}
			if err := tx.Create(client).Error; err != nil {
				return fmt.Errorf("failed to create client record: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent insert won the race on one of the unique columns
		return r.duplicateCause(ctx, user)
	}
	return err
}

// duplicateCause reports which unique column of user is already taken
func (r *UserRepository) duplicateCause(ctx context.Context, user *models.User) error {
	if user.PhoneNumber != nil {
		var taken int64
		err := r.db.WithContext(ctx).Model(&models.User{}).
			Where("phone_number = ? AND username <> ?", *user.PhoneNumber, user.Username).
			Count(&taken).Error
		if err == nil && taken > 0 {
			return ErrDuplicatePhone
		}
	}
	return ErrDuplicateUser
}

// UpdateUserProfile applies the given column updates to one user and returns
// the updated row. A phone number held by another user is rejected.
func (r *UserRepository) UpdateUserProfile(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if phone, ok := updates["phone_number"].(*string); ok && phone != nil {
			var taken int64
			if err := tx.Model(&models.User{}).Where("phone_number = ? AND id <> ?", *phone, id).Count(&taken).Error; err != nil {
				return fmt.Errorf("failed to check phone number: %w", err)
			}
			if taken > 0 {
				return ErrDuplicatePhone
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicatePhone
				}
				return fmt.Errorf("failed to update user: %w", err)
			}
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user ordered by id
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// DeleteUser removes the user's satellite records and session before the user row
func (r *UserRepository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Admin{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Client{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
