package services

import (
	"gorm.io/gorm"

	"teamvest/internal/models"
)

// ChainLink is one ancestor in a user's sponsor chain. Level 1 is the
// direct sponsor.
type ChainLink struct {
	UserID      uint
	Level       int
	DisplayName string
}

// ChainService walks the sponsor graph: upward for payout chains, downward
// for team volume.
type ChainService struct {
	db *gorm.DB
}

// NewChainService creates a new ChainService
func NewChainService(db *gorm.DB) *ChainService {
	return &ChainService{db: db}
}

// ResolveChain walks upward from userID, emitting (ancestor, level) pairs
// until the chain ends or maxDepth is reached. A user with no sponsor
// yields an empty chain. A dangling sponsor reference terminates the walk;
// it is not an error.
func (s *ChainService) ResolveChain(userID uint, maxDepth int) ([]ChainLink, error) {
	var chain []ChainLink

	var current models.User
	if err := s.db.First(&current, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return chain, nil
		}
		return nil, err
	}

	level := 1
	for current.SponsorID != nil && level <= maxDepth {
		var sponsor models.User
		if err := s.db.First(&sponsor, *current.SponsorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, err
		}

		chain = append(chain, ChainLink{
			UserID:      sponsor.ID,
			Level:       level,
			DisplayName: sponsor.DisplayName,
		})

		current = sponsor
		level++
	}

	return chain, nil
}

// Downline returns the IDs of every user transitively sponsored by userID,
// breadth-first. The walk is iterative with a visited set; the sponsor
// graph is acyclic by construction but the guard keeps a corrupt row from
// looping the scan.
func (s *ChainService) Downline(userID uint) ([]uint, error) {
	visited := map[uint]bool{userID: true}
	frontier := []uint{userID}
	var downline []uint

	for len(frontier) > 0 {
		var children []models.User
		if err := s.db.Select("id").Where("sponsor_id IN ?", frontier).Find(&children).Error; err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			downline = append(downline, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	return downline, nil
}
