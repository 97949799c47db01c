package repository

import (
	"context"
	"errors"
	"time"

	"cinema-ticketing-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// ReplaceRefreshToken stores token as the user's only session. An existing row
// for the same user is overwritten in the same statement.
func (r *RefreshTokenRepository) ReplaceRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "expires_at", "created_at"}),
		}).
		Create(token).Error
}

// FindRefreshToken finds the session row matching userID and hash, expired or not
func (r *RefreshTokenRepository) FindRefreshToken(ctx context.Context, userID uint, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, hash).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// DeleteRefreshToken removes a single session row
func (r *RefreshTokenRepository) DeleteRefreshToken(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.RefreshToken{}, id).Error
}

// DeleteRefreshTokensByUser removes the user's session. Deleting nothing is not an error.
func (r *RefreshTokenRepository) DeleteRefreshTokensByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}

// DeleteExpiredRefreshTokens purges rows that expired at or before now
func (r *RefreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

// CountRefreshTokensByUser returns how many session rows the user has
func (r *RefreshTokenRepository) CountRefreshTokensByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
