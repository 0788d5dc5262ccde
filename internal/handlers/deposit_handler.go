package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"teamvest/internal/auth"
	"teamvest/internal/models"
	"teamvest/internal/services"
)

type DepositHandler struct {
	depositService *services.DepositService
	otpService     *services.OtpService
}

func NewDepositHandler(depositService *services.DepositService, otpService *services.OtpService) *DepositHandler {
	return &DepositHandler{depositService: depositService, otpService: otpService}
}

// RequestDepositOtp issues an OTP for a deposit request.
func (h *DepositHandler) RequestDepositOtp(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	otp, err := h.otpService.Issue(userID, models.OtpPurposeDeposit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue OTP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"expires_at": otp.ExpiresAt},
	})
}

// RequestDeposit records a pending deposit for admin review.
func (h *DepositHandler) RequestDeposit(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
		TxNote string `json:"tx_note"`
		Otp    string `json:"otp" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	deposit, err := h.depositService.RequestDeposit(userID, amount, req.TxNote, req.Otp)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOtp) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    deposit,
	})
}

// GetDeposits lists the user's deposits.
func (h *DepositHandler) GetDeposits(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	deposits, err := h.depositService.UserDeposits(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load deposits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    deposits,
	})
}
