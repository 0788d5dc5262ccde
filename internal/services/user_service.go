package services

import (
	"fmt"

	"gorm.io/gorm"

	"teamvest/internal/models"
)

// UserService handles user-related business logic
type UserService struct {
	db    *gorm.DB
	chain *ChainService
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB, chain *ChainService) *UserService {
	return &UserService{db: db, chain: chain}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// DirectReferrals lists the users directly sponsored by userID.
func (s *UserService) DirectReferrals(userID uint) ([]models.User, error) {
	var users []models.User
	if err := s.db.Where("sponsor_id = ?", userID).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Upline returns the user's sponsor chain up to maxDepth.
func (s *UserService) Upline(userID uint, maxDepth int) ([]ChainLink, error) {
	return s.chain.ResolveChain(userID, maxDepth)
}

// TeamSize counts the user's entire downline.
func (s *UserService) TeamSize(userID uint) (int, error) {
	downline, err := s.chain.Downline(userID)
	if err != nil {
		return 0, err
	}
	return len(downline), nil
}
