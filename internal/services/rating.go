package services

import (
	"math"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
)

// Elo-style rating constants
const (
	kFactor     = 32  // how much a single contest can move a rating
	ratingScale = 400 // rating gap producing a 10:1 expected-score ratio
)

// RatingResult is one participant's rating adjustment.
type RatingResult struct {
	UserID    string `json:"userId"`
	OldRating int    `json:"oldRating"`
	NewRating int    `json:"newRating"`
	Change    int    `json:"change"`
}

// expectedScore is the logistic win probability of a against b.
func expectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/ratingScale))
}

// CalculateContestRatings computes Elo-style adjustments from final
// standings. Every participant is compared pairwise against every other:
// the realized score per pair comes from relative rank (1 for a better
// rank, 0.5 for an equal rank, 0 for a worse one), the expected score from
// the logistic rating difference. The delta is the K-scaled average of
// (actual - expected) over all opponents, so a single contest moves a
// rating by at most K points.
//
// Missing or malformed ratings fall back to the 1500 baseline before any
// math runs, and non-finite results degrade to a zero change, so NaN can
// never reach persistence.
func CalculateContestRatings(standings []LeaderboardEntry, ratings map[string]int) []RatingResult {
	n := len(standings)
	results := make([]RatingResult, 0, n)
	if n == 0 {
		return results
	}

	pre := make([]float64, n)
	for i, entry := range standings {
		r, ok := ratings[entry.UserID]
		if !ok || r <= 0 {
			r = models.DefaultRating
		}
		pre[i] = float64(r)
	}

	for i, entry := range standings {
		old := int(pre[i])

		if n == 1 {
			// Nobody to compare against
			results = append(results, RatingResult{UserID: entry.UserID, OldRating: old, NewRating: old, Change: 0})
			continue
		}

		var actual, expected float64
		for j, other := range standings {
			if i == j {
				continue
			}
			switch {
			case entry.Rank < other.Rank:
				actual += 1.0
			case entry.Rank == other.Rank:
				actual += 0.5
			}
			expected += expectedScore(pre[i], pre[j])
		}

		delta := kFactor * (actual - expected) / float64(n-1)
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			delta = 0
		}

		change := int(math.Round(delta))
		results = append(results, RatingResult{
			UserID:    entry.UserID,
			OldRating: old,
			NewRating: old + change,
			Change:    change,
		})
	}

	return results
}
