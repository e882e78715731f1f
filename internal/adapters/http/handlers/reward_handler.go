package handlers

import (
	"shelfmate/internal/core/services"
	"shelfmate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RewardHandler handles reward entitlement endpoints
type RewardHandler struct {
	rewardService *services.RewardService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

// GrantRequest represents grant reward request body
type GrantRequest struct {
	UserID uint `json:"user_id"`
}

// Grant grants a borrow-extension entitlement
// @Summary Grant extension reward
// @Description Grant a user one borrow-extension entitlement, e.g. a spin-wheel prize (Librarian/Admin only)
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GrantRequest true "User to reward"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /rewards/extension [post]
func (h *RewardHandler) Grant(c *fiber.Ctx) error {
	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User ID is required")
	}

	reward, err := h.rewardService.GrantExtensionBonus(c.Context(), req.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to grant reward")
	}

	return response.Created(c, "Reward granted", fiber.Map{
		"reward": reward,
	})
}

// My lists the current user's rewards
// @Summary My rewards
// @Description List the authenticated user's reward entitlements
// @Tags Rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /rewards/my [get]
func (h *RewardHandler) My(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	rewards, err := h.rewardService.ListForUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list rewards")
	}

	hasBonus, err := h.rewardService.HasExtensionBonus(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check entitlements")
	}

	return response.Success(c, "Rewards retrieved", fiber.Map{
		"rewards":             rewards,
		"has_extension_bonus": hasBonus,
	})
}
