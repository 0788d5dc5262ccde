package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teamvest/internal/auth"
	"teamvest/internal/plans"
	"teamvest/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	rankService *services.RankService
}

func NewUserHandler(userService *services.UserService, rankService *services.RankService) *UserHandler {
	return &UserHandler{userService: userService, rankService: rankService}
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetTeam returns the user's direct referrals and total team size.
func (h *UserHandler) GetTeam(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	referrals, err := h.userService.DirectReferrals(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load team"})
		return
	}

	teamSize, err := h.userService.TeamSize(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load team"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"direct_referrals": referrals,
			"team_size":        teamSize,
		},
	})
}

// GetUpline returns the user's sponsor chain.
func (h *UserHandler) GetUpline(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	chain, err := h.userService.Upline(userID, plans.MaxPayoutDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve upline"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    chain,
	})
}

// GetRank returns the user's current rank and downline volume.
func (h *UserHandler) GetRank(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rank, volume, err := h.rankService.CurrentRank(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute rank"})
		return
	}

	data := gin.H{"downline_volume": volume}
	if rank != nil {
		data["rank"] = rank.Name
		data["monthly_salary"] = rank.Salary
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
