package repositories

import (
	"context"
	"time"

	"shelfmate/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// RewardRepository handles reward entitlement data access
type RewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Create grants a new entitlement
func (r *RewardRepository) Create(ctx context.Context, entitlement *models.RewardEntitlement) error {
	return r.db.WithContext(ctx).Create(entitlement).Error
}

// HasUnconsumed reports whether the user holds an unconsumed entitlement of
// the given kind
func (r *RewardRepository) HasUnconsumed(ctx context.Context, userID uint, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RewardEntitlement{}).
		Where("user_id = ? AND kind = ? AND consumed_at IS NULL", userID, kind).
		Count(&count).Error
	return count > 0, err
}

// ConsumeOldest consumes the oldest unconsumed entitlement of the given kind
func (r *RewardRepository) ConsumeOldest(ctx context.Context, userID uint, kind string) error {
	var entitlement models.RewardEntitlement
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND consumed_at IS NULL", userID, kind).
		Order("granted_at ASC").
		First(&entitlement).Error
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&entitlement).Update("consumed_at", now).Error
}

// GetByUserID returns all entitlements of a user, newest first
func (r *RewardRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.RewardEntitlement, error) {
	var entitlements []*models.RewardEntitlement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at DESC").
		Find(&entitlements).Error
	return entitlements, err
}
