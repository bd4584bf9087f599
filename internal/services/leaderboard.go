package services

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
)

// LeaderboardEntry is one row of a fully recomputed standings snapshot.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Username string `json:"username"`

	ProblemsSolved   int      `json:"problemsSolved"`
	SolvedProblemIDs []string `json:"problemsSolvedIds"`

	Score   int `json:"score"`
	Penalty int `json:"penalty"` // minutes

	LastSubmissionTime time.Time `json:"lastSubmissionTime"`

	Rank   int    `json:"rank"`
	Change string `json:"change"` // "-", or an up/down delta like "▲2" / "▼1"
}

const leaderboardCacheTTL = 10 * time.Second

func leaderboardCacheKey(contestID string) string {
	return fmt.Sprintf("leaderboard:%s", contestID)
}

// InvalidateLeaderboardCache drops the cached snapshot for a contest. Called
// on every first-time acceptance so viewers see fresh standings.
func InvalidateLeaderboardCache(contestID string) {
	if database.Redis == nil {
		return
	}
	if err := database.CacheInvalidate(leaderboardCacheKey(contestID)); err != nil {
		logger.Warn().Err(err).Str("contest_id", contestID).Msg("Failed to invalidate leaderboard cache")
	}
}

// CalculateLeaderboard recomputes the full standings for a contest by
// replaying every accepted submission, in chronological order, from the
// durable submission log. Every registered participant gets a row, solved
// anything or not. It is a pure read-and-aggregate: the same registrations
// and accepted submissions always produce the same ranking, regardless of
// the order they arrived in.
func CalculateLeaderboard(contestID string) ([]LeaderboardEntry, error) {
	var registrations []models.ContestRegistration
	if err := database.DB.
		Where("contest_id = ?", contestID).
		Find(&registrations).Error; err != nil {
		return nil, err
	}

	var submissions []models.ContestSubmission
	if err := database.DB.
		Where("contest_id = ? AND status = ?", contestID, models.StatusAccepted).
		Order("created_at asc").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	// Aggregate per user; only the first acceptance of a problem counts
	type userAgg struct {
		entry  *LeaderboardEntry
		solved map[string]bool
	}
	users := make(map[string]*userAgg)

	for _, sub := range submissions {
		agg := users[sub.UserID]
		if agg == nil {
			agg = &userAgg{
				entry:  &LeaderboardEntry{UserID: sub.UserID, Change: "-"},
				solved: make(map[string]bool),
			}
			users[sub.UserID] = agg
		}

		if agg.solved[sub.ProblemID] {
			// Resubmission of an already-solved problem never double-counts
			continue
		}
		agg.solved[sub.ProblemID] = true

		agg.entry.SolvedProblemIDs = append(agg.entry.SolvedProblemIDs, sub.ProblemID)
		agg.entry.ProblemsSolved++
		agg.entry.Score += sub.Points
		agg.entry.Penalty += sub.Penalty
		if sub.CreatedAt.After(agg.entry.LastSubmissionTime) {
			agg.entry.LastSubmissionTime = sub.CreatedAt
		}
	}

	// Registered participants who solved nothing still hold a rank, and are
	// rated at finalization like everyone else.
	for _, reg := range registrations {
		if users[reg.UserID] == nil {
			users[reg.UserID] = &userAgg{
				entry:  &LeaderboardEntry{UserID: reg.UserID, Change: "-"},
				solved: make(map[string]bool),
			}
		}
	}

	leaderboard := make([]LeaderboardEntry, 0, len(users))
	for _, agg := range users {
		leaderboard = append(leaderboard, *agg.entry)
	}

	// Attach display names in one query
	if len(leaderboard) > 0 {
		ids := make([]string, len(leaderboard))
		for i, e := range leaderboard {
			ids[i] = e.UserID
		}
		var participants []models.User
		if err := database.DB.Select("id", "name", "username").Where("id IN ?", ids).Find(&participants).Error; err == nil {
			byID := make(map[string]models.User, len(participants))
			for _, u := range participants {
				byID[u.ID] = u
			}
			for i := range leaderboard {
				if u, ok := byID[leaderboard[i].UserID]; ok {
					leaderboard[i].Name = u.Name
					leaderboard[i].Username = u.Username
				}
			}
		}
	}

	sort.Slice(leaderboard, func(i, j int) bool {
		a, b := leaderboard[i], leaderboard[j]
		if a.ProblemsSolved != b.ProblemsSolved {
			return a.ProblemsSolved > b.ProblemsSolved
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Penalty != b.Penalty {
			return a.Penalty < b.Penalty
		}
		if !a.LastSubmissionTime.Equal(b.LastSubmissionTime) {
			return a.LastSubmissionTime.Before(b.LastSubmissionTime)
		}
		// Full tie: stable, deterministic order by user id
		return a.UserID < b.UserID
	})

	for i := range leaderboard {
		leaderboard[i].Rank = i + 1
	}

	applyRankChanges(contestID, leaderboard)

	return leaderboard, nil
}

// applyRankChanges annotates entries with the delta against the previously
// persisted snapshot. Users without a previous rank keep the "-" marker.
func applyRankChanges(contestID string, leaderboard []LeaderboardEntry) {
	var previous []models.PreviousRank
	if err := database.DB.Where("contest_id = ?", contestID).Find(&previous).Error; err != nil {
		return
	}
	prevByUser := make(map[string]int, len(previous))
	for _, p := range previous {
		prevByUser[p.UserID] = p.Rank
	}

	for i := range leaderboard {
		prev, ok := prevByUser[leaderboard[i].UserID]
		if !ok {
			continue
		}
		delta := prev - leaderboard[i].Rank
		switch {
		case delta > 0:
			leaderboard[i].Change = fmt.Sprintf("▲%d", delta)
		case delta < 0:
			leaderboard[i].Change = fmt.Sprintf("▼%d", -delta)
		default:
			leaderboard[i].Change = "-"
		}
	}
}

// SavePreviousRanks records the ranks of the snapshot just served so the
// next recompute can show deltas.
func SavePreviousRanks(contestID string, leaderboard []LeaderboardEntry) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contest_id = ?", contestID).Delete(&models.PreviousRank{}).Error; err != nil {
			return err
		}
		for _, entry := range leaderboard {
			row := models.PreviousRank{
				ContestID: contestID,
				UserID:    entry.UserID,
				Rank:      entry.Rank,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// PersistLeaderboard replaces the stored snapshot rows for a contest inside
// the given transaction. Used at finalization to lock in final standings.
func PersistLeaderboard(tx *gorm.DB, contestID string, leaderboard []LeaderboardEntry) error {
	if err := tx.Where("contest_id = ?", contestID).Delete(&models.LeaderboardRow{}).Error; err != nil {
		return err
	}
	for _, entry := range leaderboard {
		row := models.LeaderboardRow{
			ContestID:      contestID,
			UserID:         entry.UserID,
			Rank:           entry.Rank,
			ProblemsSolved: entry.ProblemsSolved,
			Score:          entry.Score,
			Penalty:        entry.Penalty,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// CachedLeaderboard serves the snapshot from Redis when fresh, falling back
// to a full recompute. Cache being down just means recompute every time.
func CachedLeaderboard(contestID string) ([]LeaderboardEntry, error) {
	key := leaderboardCacheKey(contestID)

	if database.Redis != nil {
		var cached []LeaderboardEntry
		if err := database.CacheGet(key, &cached); err == nil {
			return cached, nil
		}
	}

	leaderboard, err := CalculateLeaderboard(contestID)
	if err != nil {
		return nil, err
	}

	if database.Redis != nil {
		if err := database.CacheSet(key, leaderboard, leaderboardCacheTTL); err != nil {
			logger.Debug().Err(err).Str("contest_id", contestID).Msg("Leaderboard cache write failed")
		}
	}

	return leaderboard, nil
}
