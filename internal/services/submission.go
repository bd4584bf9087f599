package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

// SubmissionOutcome is what the submit flow hands back to the HTTP layer.
type SubmissionOutcome struct {
	Submission      *models.ContestSubmission
	Outcomes        []TestCaseOutcome
	AlreadySolved   bool
	FirstAcceptance bool
}

// SubmissionService drives one user submission end to end: judging,
// scoring, atomic counter updates, persistence, and the realtime fan-out on
// a first acceptance.
type SubmissionService struct {
	Pipeline    *Pipeline
	Broadcaster Broadcaster
}

func NewSubmissionService(pipeline *Pipeline, broadcaster Broadcaster) *SubmissionService {
	return &SubmissionService{Pipeline: pipeline, Broadcaster: broadcaster}
}

// Submit judges code against every test case (hidden included) and persists
// the resulting submission. Resubmitting an already-solved problem is a
// no-op short-circuit: the stored acceptance is returned untouched.
func (s *SubmissionService) Submit(ctx context.Context, contest *models.Contest, problem *models.Problem, userID, code, language string) (*SubmissionOutcome, error) {
	var prior []models.ContestSubmission
	if err := database.DB.
		Where("user_id = ? AND contest_id = ? AND problem_id = ?", userID, contest.ID, problem.ID).
		Order("created_at asc").
		Find(&prior).Error; err != nil {
		return nil, err
	}

	priorFailed := 0
	for i := range prior {
		if prior[i].Status == models.StatusAccepted {
			return &SubmissionOutcome{Submission: &prior[i], AlreadySolved: true}, nil
		}
		priorFailed++
	}

	outcomes, err := s.Pipeline.Evaluate(ctx, problem, code, language, false)
	if err != nil {
		return nil, err
	}

	status, verdict, runtime, memory, _ := AggregateOutcomes(outcomes)
	accepted := status == models.StatusAccepted

	penalty := 0
	points := 0
	if accepted {
		penalty = PenaltyMinutes(priorFailed)
		points = CalculatePoints(problem.Difficulty, penalty)
	}

	submission := &models.ContestSubmission{
		ID:        utils.GenerateID(),
		UserID:    userID,
		ContestID: contest.ID,
		ProblemID: problem.ID,
		Code:      code,
		Language:  language,
		Status:    status,
		Verdict:   verdict,
		Runtime:   runtime,
		Memory:    memory,
		Points:    points,
		Penalty:   penalty,
		Attempts:  priorFailed + 1,
	}

	// Only non-hidden results are persisted or ever exposed
	for _, o := range outcomes {
		if o.Hidden {
			continue
		}
		submission.TestResults = append(submission.TestResults, models.TestResult{
			ID:             utils.GenerateID(),
			Input:          o.Input,
			ExpectedOutput: o.ExpectedOutput,
			ActualOutput:   o.ActualOutput,
			Status:         o.Status,
			ExecutionTime:  o.ExecutionTime,
			Memory:         o.Memory,
			Passed:         o.Passed,
		})
	}

	if err := database.DB.Create(submission).Error; err != nil {
		return nil, err
	}

	// Counters follow the durable submission row; a failed insert must not
	// leave increments with no submission behind them.
	if err := s.bumpProblemCounters(contest.ID, problem.ID, accepted); err != nil {
		logger.Error().Err(err).Str("problem_id", problem.ID).Msg("Failed to update problem counters")
	}

	result := &SubmissionOutcome{Submission: submission, Outcomes: outcomes}

	if accepted {
		// First acceptance for this (user, problem, contest): fan out the
		// fresh standings. Failures here never unwind the submission.
		result.FirstAcceptance = true
		InvalidateLeaderboardCache(contest.ID)

		leaderboard, err := CalculateLeaderboard(contest.ID)
		if err != nil {
			logger.Error().Err(err).Str("contest_id", contest.ID).Msg("Leaderboard recompute after acceptance failed")
		} else if s.Broadcaster != nil {
			s.Broadcaster.PublishLeaderboard(contest.ID, leaderboard)
		}
	}

	return result, nil
}

// Run judges code against the visible test cases only. Nothing is
// persisted; the caller gets ephemeral outcomes.
func (s *SubmissionService) Run(ctx context.Context, problem *models.Problem, code, language string) ([]TestCaseOutcome, error) {
	return s.Pipeline.Evaluate(ctx, problem, code, language, true)
}

// bumpProblemCounters applies atomic increments to the contest-scoped and
// global submission/accepted counters. Increment expressions, not
// read-modify-write, so concurrent submissions never lose updates.
func (s *SubmissionService) bumpProblemCounters(contestID, problemID string, accepted bool) error {
	acceptedInc := 0
	if accepted {
		acceptedInc = 1
	}

	stat := models.ContestProblemStat{
		ContestID:   contestID,
		ProblemID:   problemID,
		Submissions: 1,
		Accepted:    acceptedInc,
	}
	if err := database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contest_id"}, {Name: "problem_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"submissions": gorm.Expr("contest_problem_stats.submissions + 1"),
			"accepted":    gorm.Expr("contest_problem_stats.accepted + ?", acceptedInc),
		}),
	}).Create(&stat).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{
		"submissions": gorm.Expr("submissions + 1"),
	}
	if accepted {
		updates["accepted"] = gorm.Expr("accepted + 1")
	}
	return database.DB.Model(&models.Problem{}).Where("id = ?", problemID).Updates(updates).Error
}
