package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/errors"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
)

// FinalizeResult carries the locked-in standings and rating adjustments of
// a freshly finalized contest.
type FinalizeResult struct {
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	RatingChanges []RatingResult     `json:"ratingChanges"`
}

// Finalizer is the background scheduler that drives ended contests through
// leaderboard -> ratings -> persistence, exactly once each.
type Finalizer struct {
	Interval    time.Duration
	Broadcaster Broadcaster
}

func NewFinalizer(interval time.Duration, broadcaster Broadcaster) *Finalizer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Finalizer{Interval: interval, Broadcaster: broadcaster}
}

// Start runs the scheduler loop until the context is cancelled.
func (f *Finalizer) Start(ctx context.Context) {
	logger.Info().Dur("interval", f.Interval).Msg("Contest finalization scheduler started")

	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Contest finalization scheduler stopping")
			return
		case <-ticker.C:
			f.runDueContests()
		}
	}
}

// runDueContests scans for ended, unfinalized contests. One contest's
// failure is logged and must not stop the others; an unfinalized failure
// stays a candidate for the next tick.
func (f *Finalizer) runDueContests() {
	var due []models.Contest
	if err := database.DB.
		Where("end_time < ? AND is_finalized = ?", time.Now(), false).
		Find(&due).Error; err != nil {
		logger.Error().Err(err).Msg("Finalization scan failed")
		return
	}

	for _, contest := range due {
		if _, err := f.Finalize(contest.ID); err != nil {
			logger.Error().Err(err).
				Str("contest_id", contest.ID).
				Str("title", contest.Title).
				Msg("Contest finalization failed, will retry next tick")
			continue
		}
		logger.Info().Str("contest_id", contest.ID).Str("title", contest.Title).Msg("Finalized contest")
	}
}

// Finalize locks in a contest's final standings and applies rating
// adjustments, exactly once. The full aggregate (leaderboard + ratings) is
// computed before anything is written; the write itself is a single
// transaction opened with a compare-and-swap on is_finalized, so two
// overlapping callers cannot both apply ratings and a failed attempt leaves
// the flag unset for retry.
func (f *Finalizer) Finalize(contestID string) (*FinalizeResult, error) {
	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		return nil, errors.NotFound("Contest not found")
	}
	if contest.IsFinalized {
		return nil, errors.Conflict("Contest is already finalized")
	}

	leaderboard, err := CalculateLeaderboard(contestID)
	if err != nil {
		return nil, err
	}

	// Pre-contest ratings, baseline-defaulted at the boundary
	ratings := make(map[string]int, len(leaderboard))
	if len(leaderboard) > 0 {
		ids := make([]string, len(leaderboard))
		for i, e := range leaderboard {
			ids[i] = e.UserID
		}
		var participants []models.User
		if err := database.DB.Select("id", "rating").Where("id IN ?", ids).Find(&participants).Error; err != nil {
			return nil, err
		}
		for i := range participants {
			ratings[participants[i].ID] = participants[i].EffectiveRating()
		}
	}

	changes := CalculateContestRatings(leaderboard, ratings)

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// Atomic check-and-set closes the race window between overlapping
		// ticks or a tick racing a manual finalize.
		res := tx.Model(&models.Contest{}).
			Where("id = ? AND is_finalized = ?", contestID, false).
			Update("is_finalized", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Conflict("Contest is already finalized")
		}

		for _, change := range changes {
			if err := tx.Model(&models.User{}).
				Where("id = ?", change.UserID).
				Update("rating", change.NewRating).Error; err != nil {
				return err
			}
			audit := models.RatingChange{
				ContestID: contestID,
				UserID:    change.UserID,
				OldRating: change.OldRating,
				NewRating: change.NewRating,
				Change:    change.Change,
			}
			if err := tx.Create(&audit).Error; err != nil {
				return err
			}
		}

		return PersistLeaderboard(tx, contestID, leaderboard)
	})
	if err != nil {
		return nil, err
	}

	if f.Broadcaster != nil {
		f.Broadcaster.PublishLeaderboard(contestID, leaderboard)
	}

	return &FinalizeResult{Leaderboard: leaderboard, RatingChanges: changes}, nil
}
