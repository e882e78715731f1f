package services

import (
	"context"

	"shelfmate/internal/adapters/persistence/models"
	"shelfmate/internal/adapters/persistence/repositories"
)

// RewardService owns spin-wheel entitlements. The loan lifecycle asks it
// whether a user holds a borrow-extension bonus and burns one when the
// second extension goes through.
type RewardService struct {
	rewardRepo *repositories.RewardRepository
}

// NewRewardService creates a new reward service
func NewRewardService(rewardRepo *repositories.RewardRepository) *RewardService {
	return &RewardService{rewardRepo: rewardRepo}
}

var _ BonusLookup = (*RewardService)(nil)

// HasExtensionBonus reports whether the user holds an unconsumed
// borrow-extension entitlement.
func (s *RewardService) HasExtensionBonus(ctx context.Context, userID uint) (bool, error) {
	return s.rewardRepo.HasUnconsumed(ctx, userID, models.RewardBorrowExtension)
}

// ConsumeExtensionBonus burns the user's oldest unconsumed borrow-extension
// entitlement.
func (s *RewardService) ConsumeExtensionBonus(ctx context.Context, userID uint) error {
	return s.rewardRepo.ConsumeOldest(ctx, userID, models.RewardBorrowExtension)
}

// GrantExtensionBonus grants a borrow-extension entitlement, e.g. a spin
// wheel prize.
func (s *RewardService) GrantExtensionBonus(ctx context.Context, userID uint) (*models.RewardEntitlement, error) {
	entitlement := &models.RewardEntitlement{
		UserID: userID,
		Kind:   models.RewardBorrowExtension,
	}
	if err := s.rewardRepo.Create(ctx, entitlement); err != nil {
		return nil, err
	}
	return entitlement, nil
}

// ListForUser returns all entitlements of a user.
func (s *RewardService) ListForUser(ctx context.Context, userID uint) ([]*models.RewardEntitlement, error) {
	return s.rewardRepo.GetByUserID(ctx, userID)
}
