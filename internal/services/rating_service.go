package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/qa-tracker-api/internal/cache"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
)

var priorityWeights = map[models.BugPriority]int{
	models.BugPriorityCritical: constants.WeightCritical,
	models.BugPriorityHigh:     constants.WeightHigh,
	models.BugPriorityMedium:   constants.WeightMedium,
	models.BugPriorityLow:      constants.WeightLow,
}

// RatingResult is a tester's weighted score. Breakdown omits priorities
// with no bugs.
type RatingResult struct {
	Rating    int                        `json:"rating"`
	BugsCount int                        `json:"bugsCount"`
	Breakdown map[models.BugPriority]int `json:"breakdown"`
}

// Score applies the priority weights to per-priority bug counts.
func Score(counts map[models.BugPriority]int) RatingResult {
	result := RatingResult{Breakdown: make(map[models.BugPriority]int)}
	for _, p := range models.BugPriorities {
		n := counts[p]
		if n <= 0 {
			continue
		}
		result.Breakdown[p] = n
		result.BugsCount += n
		result.Rating += n * priorityWeights[p]
	}
	return result
}

// RatingService computes and persists tester ratings
type RatingService struct {
	testerRepo repository.TesterRepository
	bugRepo    repository.BugRepository
	cache      *cache.Cache
}

func NewRatingService(testerRepo repository.TesterRepository, bugRepo repository.BugRepository, c *cache.Cache) *RatingService {
	return &RatingService{
		testerRepo: testerRepo,
		bugRepo:    bugRepo,
		cache:      c,
	}
}

// CalculateRating aggregates the tester's current bugs. An unknown tester
// yields an empty result.
func (s *RatingService) CalculateRating(testerID uint64) (*RatingResult, error) {
	counts, err := s.bugRepo.CountByPriority(testerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bugs: %w", err)
	}
	result := Score(counts)
	return &result, nil
}

// UpdateTesterRating recomputes the rating from scratch and stores it on the
// tester row.
func (s *RatingService) UpdateTesterRating(ctx context.Context, testerID uint64) (*models.Tester, error) {
	result, err := s.CalculateRating(testerID)
	if err != nil {
		return nil, err
	}

	if err := s.testerRepo.UpdateRating(testerID, result.Rating, result.BugsCount); err != nil {
		return nil, storeError(err, "tester", testerID, "update rating")
	}
	s.InvalidateTop(ctx)

	tester, err := s.testerRepo.FindByID(testerID)
	if err != nil {
		return nil, storeError(err, "tester", testerID, "find tester")
	}
	return tester, nil
}

func (s *RatingService) topKey() string {
	return s.cache.Key("testers", "top")
}

// GetTopTesters returns up to limit testers with a positive rating, best first.
func (s *RatingService) GetTopTesters(ctx context.Context, limit int) ([]models.Tester, error) {
	if limit <= 0 {
		limit = constants.DefaultTopTestersLimit
	}
	if limit > constants.MaxTopTestersLimit {
		limit = constants.MaxTopTestersLimit
	}

	var top []models.Tester
	hit, err := s.cache.GetJSON(ctx, s.topKey(), &top)
	if err != nil {
		logger.Warning("top testers cache read: %v", err)
	}
	if !hit {
		top, err = s.testerRepo.TopTesters(constants.MaxTopTestersLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load top testers: %w", err)
		}
		if err := s.cache.SetJSON(ctx, s.topKey(), top); err != nil {
			logger.Warning("top testers cache write: %v", err)
		}
	}

	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// InvalidateTop drops the cached ranking.
func (s *RatingService) InvalidateTop(ctx context.Context) {
	if err := s.cache.Delete(ctx, s.topKey()); err != nil {
		logger.Warning("top testers cache invalidate: %v", err)
	}
}
