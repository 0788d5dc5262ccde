package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"teamvest/internal/auth"
	"teamvest/internal/models"
	"teamvest/internal/services"
)

type AdminHandler struct {
	db                  *gorm.DB
	depositService      *services.DepositService
	walletService       *services.WalletService
	distributionService *services.DistributionService
	rankService         *services.RankService
}

func NewAdminHandler(db *gorm.DB, depositService *services.DepositService, walletService *services.WalletService, distributionService *services.DistributionService, rankService *services.RankService) *AdminHandler {
	return &AdminHandler{
		db:                  db,
		depositService:      depositService,
		walletService:       walletService,
		distributionService: distributionService,
		rankService:         rankService,
	}
}

// AdminMiddleware allows only admin users through.
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		var user models.User
		if err := h.db.First(&user, userID).Error; err != nil || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetPendingDeposits lists deposits awaiting review.
func (h *AdminHandler) GetPendingDeposits(c *gin.Context) {
	deposits, err := h.depositService.PendingDeposits()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load deposits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    deposits,
	})
}

// ApproveDeposit approves a pending deposit.
func (h *AdminHandler) ApproveDeposit(c *gin.Context) {
	depositID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deposit ID"})
		return
	}

	deposit, err := h.depositService.Approve(uint(depositID))
	if err != nil {
		if errors.Is(err, services.ErrDepositNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "Deposit is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve deposit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    deposit,
	})
}

// RejectDeposit rejects a pending deposit.
func (h *AdminHandler) RejectDeposit(c *gin.Context) {
	depositID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deposit ID"})
		return
	}

	if err := h.depositService.Reject(uint(depositID)); err != nil {
		if errors.Is(err, services.ErrDepositNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "Deposit is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject deposit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPendingWithdrawals lists withdrawal requests awaiting settlement.
func (h *AdminHandler) GetPendingWithdrawals(c *gin.Context) {
	withdrawals, err := h.walletService.PendingWithdrawals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawals,
	})
}

// SettleWithdrawal approves or rejects a pending withdrawal.
func (h *AdminHandler) SettleWithdrawal(c *gin.Context) {
	transactionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.walletService.SettleWithdrawal(uint(transactionID), *req.Approve); err != nil {
		if errors.Is(err, services.ErrWithdrawalNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "Withdrawal is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle withdrawal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RunDistribution triggers the daily distribution run manually and returns
// its summary. Safe to overlap with the scheduled run: units are settled
// transactionally and already-paid cycles are skipped.
func (h *AdminHandler) RunDistribution(c *gin.Context) {
	summary, err := h.distributionService.RunDaily()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// RunMonthlyEvaluation triggers the salary/reward run manually.
func (h *AdminHandler) RunMonthlyEvaluation(c *gin.Context) {
	summary, err := h.rankService.RunMonthly()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}
