package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
)

func runningContest(id string) *models.Contest {
	now := time.Now()
	return &models.Contest{
		ID:        id,
		Title:     "Weekly Sprint",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Problems:  []string{"sum"},
	}
}

func TestSubmit_AcceptedFirstTry(t *testing.T) {
	setupTestDB(t)
	judge := newFakeJudge()
	judge.accept("1 2", "3")
	judge.accept("2 3", "5")
	judge.accept("10 20", "30")

	broadcaster := &recordingBroadcaster{}
	svc := NewSubmissionService(fastPipeline(judge), broadcaster)

	outcome, err := svc.Submit(context.Background(), runningContest("sub_ac"), sumProblem(), "ada", "code", "python")
	assert.NoError(t, err)
	assert.False(t, outcome.AlreadySolved)
	assert.True(t, outcome.FirstAcceptance)

	sub := outcome.Submission
	assert.Equal(t, models.StatusAccepted, sub.Status)
	assert.Equal(t, 100, sub.Points)
	assert.Equal(t, 0, sub.Penalty)
	assert.Equal(t, 1, sub.Attempts)

	// Hidden case results never persist
	assert.Len(t, sub.TestResults, 2)

	// Acceptance fans out fresh standings
	assert.Equal(t, []string{"sub_ac"}, broadcaster.contestIDs)
	assert.Len(t, broadcaster.snapshots[0], 1)
	assert.Equal(t, "ada", broadcaster.snapshots[0][0].UserID)
}

func TestSubmit_PenaltyFromPriorFailures(t *testing.T) {
	setupTestDB(t)

	// One failed attempt already on the books
	failed := models.ContestSubmission{
		ID: "sub_prior_fail", UserID: "ada", ContestID: "sub_pen", ProblemID: "sum",
		Status: models.StatusWrongAnswer, Attempts: 1,
		CreatedAt: time.Now().Add(-10 * time.Minute),
	}
	assert.NoError(t, database.DB.Create(&failed).Error)

	judge := newFakeJudge()
	judge.accept("1 2", "3")
	judge.accept("2 3", "5")
	judge.accept("10 20", "30")
	svc := NewSubmissionService(fastPipeline(judge), &recordingBroadcaster{})

	outcome, err := svc.Submit(context.Background(), runningContest("sub_pen"), sumProblem(), "ada", "code", "python")
	assert.NoError(t, err)

	sub := outcome.Submission
	assert.Equal(t, models.StatusAccepted, sub.Status)
	assert.Equal(t, 20, sub.Penalty)
	assert.Equal(t, 83, sub.Points) // 100 - 100*(20/120), rounded
	assert.Equal(t, 2, sub.Attempts)
}

func TestSubmit_WrongAnswerScoresNothing(t *testing.T) {
	setupTestDB(t)

	// Default fake verdict is Wrong Answer for unknown inputs
	broadcaster := &recordingBroadcaster{}
	svc := NewSubmissionService(fastPipeline(newFakeJudge()), broadcaster)

	outcome, err := svc.Submit(context.Background(), runningContest("sub_wa"), sumProblem(), "ada", "code", "python")
	assert.NoError(t, err)

	sub := outcome.Submission
	assert.Equal(t, models.StatusWrongAnswer, sub.Status)
	assert.Equal(t, 0, sub.Points)
	assert.Equal(t, 0, sub.Penalty)
	assert.Equal(t, 1, sub.Attempts)

	// No acceptance, no broadcast
	assert.Empty(t, broadcaster.contestIDs)
}

func TestSubmit_AlreadySolvedShortCircuits(t *testing.T) {
	setupTestDB(t)
	judge := newFakeJudge()
	judge.accept("1 2", "3")
	judge.accept("2 3", "5")
	judge.accept("10 20", "30")

	broadcaster := &recordingBroadcaster{}
	svc := NewSubmissionService(fastPipeline(judge), broadcaster)
	contest := runningContest("sub_solved")

	first, err := svc.Submit(context.Background(), contest, sumProblem(), "ada", "code", "python")
	assert.NoError(t, err)
	assert.True(t, first.FirstAcceptance)

	second, err := svc.Submit(context.Background(), contest, sumProblem(), "ada", "code", "python")
	assert.NoError(t, err)
	assert.True(t, second.AlreadySolved)
	assert.Equal(t, first.Submission.ID, second.Submission.ID)

	// The short-circuit never re-judges or re-broadcasts
	assert.Len(t, broadcaster.contestIDs, 1)

	var count int64
	database.DB.Model(&models.ContestSubmission{}).
		Where("contest_id = ? AND user_id = ?", contest.ID, "ada").
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_BumpsContestProblemCounters(t *testing.T) {
	setupTestDB(t)
	contest := runningContest("sub_counters")

	// One rejected attempt from bob against a judge that fails everything
	rejecting := NewSubmissionService(fastPipeline(newFakeJudge()), &recordingBroadcaster{})
	_, err := rejecting.Submit(context.Background(), contest, sumProblem(), "bob", "bad", "python")
	assert.NoError(t, err)

	// One acceptance from ada
	judge := newFakeJudge()
	judge.accept("1 2", "3")
	judge.accept("2 3", "5")
	judge.accept("10 20", "30")
	accepting := NewSubmissionService(fastPipeline(judge), &recordingBroadcaster{})
	_, err = accepting.Submit(context.Background(), contest, sumProblem(), "ada", "good", "python")
	assert.NoError(t, err)

	var stat models.ContestProblemStat
	assert.NoError(t, database.DB.Where("contest_id = ? AND problem_id = ?", contest.ID, "sum").First(&stat).Error)
	assert.Equal(t, 2, stat.Submissions)
	assert.Equal(t, 1, stat.Accepted)
	assert.Equal(t, 50.0, stat.AcceptanceRate())
}

func TestSubmit_CountersOnlyAfterDurableSubmission(t *testing.T) {
	setupTestDB(t)
	contest := runningContest("sub_counter_order")

	judge := newFakeJudge()
	judge.accept("1 2", "3")
	judge.accept("2 3", "5")
	judge.accept("10 20", "30")
	svc := NewSubmissionService(fastPipeline(judge), &recordingBroadcaster{})

	// Sabotage the result table so the submission insert rolls back
	assert.NoError(t, database.DB.Migrator().DropTable(&models.TestResult{}))
	defer func() {
		assert.NoError(t, database.DB.AutoMigrate(&models.TestResult{}))
	}()

	_, err := svc.Submit(context.Background(), contest, sumProblem(), "ada", "code", "python")
	assert.Error(t, err)

	// A failed insert must leave no counter increments behind
	var stats int64
	database.DB.Model(&models.ContestProblemStat{}).
		Where("contest_id = ? AND problem_id = ?", contest.ID, "sum").
		Count(&stats)
	assert.Equal(t, int64(0), stats)
}

func TestRun_DoesNotPersist(t *testing.T) {
	setupTestDB(t)
	judge := newFakeJudge()
	judge.accept("1 2", "3")
	judge.accept("2 3", "5")
	svc := NewSubmissionService(fastPipeline(judge), &recordingBroadcaster{})

	problem := sumProblem()
	problem.ID = "sum_dry_run"
	outcomes, err := svc.Run(context.Background(), problem, "code", "python")
	assert.NoError(t, err)
	assert.Len(t, outcomes, 2) // visible cases only

	var count int64
	database.DB.Model(&models.ContestSubmission{}).Where("problem_id = ?", problem.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
