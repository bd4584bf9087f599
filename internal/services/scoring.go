package services

import (
	"math"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
)

// PenaltyPerAttempt is the time cost, in minutes, charged for every
// non-accepted attempt that preceded an acceptance.
const PenaltyPerAttempt = 20

// BasePoints returns the score a problem is worth before penalties.
func BasePoints(d models.Difficulty) int {
	switch d {
	case models.DifficultyEasy:
		return 100
	case models.DifficultyMedium:
		return 200
	case models.DifficultyHard:
		return 300
	default:
		return 100
	}
}

// PenaltyMinutes converts prior failed attempts into a time penalty.
// The Nth accepted attempt carries 20 x (N-1) minutes.
func PenaltyMinutes(priorFailedAttempts int) int {
	if priorFailedAttempts < 0 {
		return 0
	}
	return PenaltyPerAttempt * priorFailedAttempts
}

// CalculatePoints awards points for an accepted submission. Penalty minutes
// deduct linearly up to a 120-minute cap, and the award never drops below
// 25% of the base.
func CalculatePoints(d models.Difficulty, penaltyMinutes int) int {
	base := float64(BasePoints(d))

	deduction := base * math.Min(float64(penaltyMinutes)/120.0, 1.0)
	points := base - deduction

	floor := base * 0.25
	if points < floor {
		points = floor
	}
	return int(math.Round(points))
}
