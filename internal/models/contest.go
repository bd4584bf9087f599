package models

import (
	"time"

	"github.com/lib/pq"
)

type ContestStatus string

const (
	ContestUpcoming ContestStatus = "upcoming"
	ContestRunning  ContestStatus = "running"
	ContestFinished ContestStatus = "finished"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

type Contest struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `gorm:"type:text;default:'Medium'" json:"difficulty"`

	StartTime            time.Time  `gorm:"index" json:"startTime"`
	EndTime              time.Time  `gorm:"index" json:"endTime"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`

	// Ordered problem ids; position defines the problem letter (A, B, C...)
	Problems pq.StringArray `gorm:"type:text[]" json:"problems"`

	MaxParticipants *int `json:"maxParticipants"` // nil means unlimited

	// Terminal flag: flipped false->true exactly once by finalization.
	// Once set, ratings and the stored leaderboard are immutable.
	IsFinalized bool `gorm:"default:false;index" json:"isFinalized"`

	CreatedBy string `json:"createdBy"`

	ProblemStats  []ContestProblemStat `gorm:"foreignKey:ContestID" json:"problemStats,omitempty"`
	RatingChanges []RatingChange       `gorm:"foreignKey:ContestID" json:"ratingChanges,omitempty"`
	Leaderboard   []LeaderboardRow     `gorm:"foreignKey:ContestID" json:"leaderboard,omitempty"`
	PreviousRanks []PreviousRank       `gorm:"foreignKey:ContestID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusAt derives the lifecycle state from wall-clock time. The state is
// never stored, so it cannot drift from the timestamps.
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	if now.Before(c.StartTime) {
		return ContestUpcoming
	}
	if now.After(c.EndTime) {
		return ContestFinished
	}
	return ContestRunning
}

// AcceptsSubmissionsAt reports whether the submission window is open.
func (c *Contest) AcceptsSubmissionsAt(now time.Time) bool {
	return !now.Before(c.StartTime) && !now.After(c.EndTime)
}

// RegistrationClosesAt returns the effective registration cutoff. An explicit
// deadline may close registration early; it never extends past the start.
func (c *Contest) RegistrationClosesAt() time.Time {
	if c.RegistrationDeadline != nil && c.RegistrationDeadline.Before(c.StartTime) {
		return *c.RegistrationDeadline
	}
	return c.StartTime
}

func (c *Contest) RegistrationOpenAt(now time.Time) bool {
	return now.Before(c.RegistrationClosesAt())
}

// ContestRegistration links users to contests; the composite unique index is
// the source of truth for "already registered".
type ContestRegistration struct {
	ID        string `gorm:"primaryKey;type:text" json:"id"`
	UserID    string `gorm:"uniqueIndex:idx_contest_user" json:"userId"`
	ContestID string `gorm:"uniqueIndex:idx_contest_user" json:"contestId"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ContestProblemStat holds contest-scoped submission counters, incremented
// atomically on every judged submission.
type ContestProblemStat struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	ContestID  string `gorm:"uniqueIndex:idx_contest_problem" json:"contestId"`
	ProblemID  string `gorm:"uniqueIndex:idx_contest_problem" json:"problemId"`
	Submissions int   `gorm:"default:0" json:"submissions"`
	Accepted    int   `gorm:"default:0" json:"accepted"`
}

// AcceptanceRate returns the contest-scoped acceptance percentage.
func (s *ContestProblemStat) AcceptanceRate() float64 {
	if s.Submissions == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Submissions) * 100
}

// PreviousRank stores the rank a user held in the last served leaderboard
// snapshot, for up/down delta display.
type PreviousRank struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	ContestID string `gorm:"uniqueIndex:idx_prev_rank" json:"contestId"`
	UserID    string `gorm:"uniqueIndex:idx_prev_rank" json:"userId"`
	Rank      int    `json:"rank"`
}

// RatingChange is the per-participant audit record written at finalization.
type RatingChange struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	ContestID string `gorm:"index" json:"contestId"`
	UserID    string `json:"userId"`
	OldRating int    `json:"oldRating"`
	NewRating int    `json:"newRating"`
	Change    int    `json:"change"`

	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardRow is the persisted snapshot of a ranking entry. The durable
// submission log remains the source of truth; rows are overwritten by full
// recomputes, never patched incrementally.
type LeaderboardRow struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	ContestID      string `gorm:"index" json:"contestId"`
	UserID         string `json:"userId"`
	Rank           int    `json:"rank"`
	ProblemsSolved int    `json:"problemsSolved"`
	Score          int    `json:"score"`
	Penalty        int    `json:"penalty"` // minutes
}
