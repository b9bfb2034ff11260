package service

import (
	"context"
	"fmt"
	"sync"

	"TourRoute/config"
	"TourRoute/internal/model"
	"TourRoute/internal/model/dto"
	"TourRoute/internal/repository"
	"TourRoute/storage/database"
)

type GamificationService struct {
	store        repository.Store
	basePoints   int
	premiumBonus int
}

var (
	gamificationService *GamificationService
	gamificationOnce    sync.Once
)

func Gamification() *GamificationService {
	gamificationOnce.Do(func() {
		gamificationService = NewGamificationService(repository.NewStore(database.DB()))
	})
	return gamificationService
}

func NewGamificationService(store repository.Store) *GamificationService {
	return &GamificationService{
		store:        store,
		basePoints:   config.Cfg.PointsCircuitCompletion,
		premiumBonus: config.Cfg.PointsPremiumBonus,
	}
}

// CompletionPoints 完成一条官方线路可得的积分
func (s *GamificationService) CompletionPoints(isPremium bool) int {
	if isPremium {
		return s.basePoints + s.premiumBonus
	}
	return s.basePoints
}

// AwardCircuitCompletion 发放线路完成积分，同一路线只发一次。
// 重复调用时 PointsAwarded 为 0，TotalPoints 为当前总分。
func (s *GamificationService) AwardCircuitCompletion(
	ctx context.Context,
	userID, routeID, circuitID int64,
	isPremium bool,
) (*dto.PointsAwarded, error) {
	points := s.CompletionPoints(isPremium)
	award := &model.PointAward{
		SourceKey: fmt.Sprintf("route:%d", routeID),
		UserID:    userID,
		Points:    points,
	}

	total, awarded, err := s.store.Points().Award(ctx, award)
	if err != nil {
		return nil, fmt.Errorf("failed to award points for circuit %d: %w", circuitID, err)
	}
	if !awarded {
		points = 0
	}
	return &dto.PointsAwarded{PointsAwarded: points, TotalPoints: total}, nil
}
