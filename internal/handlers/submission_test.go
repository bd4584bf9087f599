package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

// stubJudge accepts everything, echoing the expected output back.
type stubJudge struct {
	mu       sync.Mutex
	expected map[string]string // token -> expected output
	seq      int
}

func (s *stubJudge) Submit(_ context.Context, req services.JudgeRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expected == nil {
		s.expected = make(map[string]string)
	}
	s.seq++
	token := fmt.Sprintf("stub-%d", s.seq)
	s.expected[token] = req.ExpectedOutput
	return token, nil
}

func (s *stubJudge) Poll(_ context.Context, token string) (*services.JudgeResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &services.JudgeResult{StatusID: 3, Stdout: s.expected[token], Time: 0.02, Memory: 2048}, true, nil
}

func wireSubmissionService() {
	pipeline := services.NewPipeline(&stubJudge{})
	pipeline.PollInterval = time.Millisecond
	Submissions = services.NewSubmissionService(pipeline, services.NoopBroadcaster{})
}

func createProblemWithCases(t *testing.T, id string) {
	t.Helper()
	problem := models.Problem{
		ID:         id,
		Title:      "Sum",
		Difficulty: models.DifficultyEasy,
		TimeLimit:  2,
	}
	assert.NoError(t, database.DB.Create(&problem).Error)
	assert.NoError(t, database.DB.Create(&models.TestCase{
		ID: id + "-tc1", ProblemID: id, Input: "1 2", ExpectedOutput: "3",
	}).Error)
	assert.NoError(t, database.DB.Create(&models.TestCase{
		ID: id + "-tc2", ProblemID: id, Input: "5 5", ExpectedOutput: "10", Hidden: true,
	}).Error)
}

func TestSubmitSolution_NotRegistered(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()
	contest := createContest(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	c, w := testContext("POST", "/uri", []byte(`{"code":"print(3)","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: "whatever"},
	}
	c.Set("userId", "sub_unreg")

	SubmitSolution(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not registered")
}

func TestSubmitSolution_BeforeStart(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()
	contest := createContest(t, time.Now().Add(time.Hour), time.Now().Add(3*time.Hour))
	register(t, contest.ID, "sub_early")

	c, w := testContext("POST", "/uri", []byte(`{"code":"print(3)","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: "whatever"},
	}
	c.Set("userId", "sub_early")

	SubmitSolution(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not started")
}

func TestSubmitSolution_AfterEnd(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()
	contest := createContest(t, time.Now().Add(-3*time.Hour), time.Now().Add(-time.Hour))
	register(t, contest.ID, "sub_late")

	c, w := testContext("POST", "/uri", []byte(`{"code":"print(3)","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: "whatever"},
	}
	c.Set("userId", "sub_late")

	SubmitSolution(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ended")
}

func TestSubmitSolution_ProblemNotInContest(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()
	contest := createContest(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	register(t, contest.ID, "sub_wrong_problem")

	c, w := testContext("POST", "/uri", []byte(`{"code":"print(3)","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: "foreign-problem"},
	}
	c.Set("userId", "sub_wrong_problem")

	SubmitSolution(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not part of the contest")
}

func TestSubmitSolution_AcceptedEndToEnd(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()

	problemID := "handler_sum"
	createProblemWithCases(t, problemID)

	contest := &models.Contest{
		ID:        utils.GenerateID(),
		Title:     "Live Contest",
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Problems:  []string{problemID},
	}
	assert.NoError(t, database.DB.Create(contest).Error)
	register(t, contest.ID, "sub_winner")

	c, w := testContext("POST", "/uri", []byte(`{"code":"print(sum(map(int,input().split())))","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: problemID},
	}
	c.Set("userId", "sub_winner")

	SubmitSolution(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All test cases passed!")
	// Hidden case input must not appear in the response
	assert.NotContains(t, w.Body.String(), "5 5")

	var sub models.ContestSubmission
	assert.NoError(t, database.DB.Where("contest_id = ? AND user_id = ?", contest.ID, "sub_winner").First(&sub).Error)
	assert.Equal(t, models.StatusAccepted, sub.Status)
	assert.Equal(t, 100, sub.Points)
}

func TestSubmitSolution_MissingBody(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()
	contest := createContest(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	c, w := testContext("POST", "/uri", []byte(`{}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: "p"},
	}
	c.Set("userId", "sub_nobody")

	SubmitSolution(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunSolution_RequiresRegistration(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()
	contest := createContest(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	c, w := testContext("POST", "/uri", []byte(`{"code":"x","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: "p"},
	}
	c.Set("userId", "run_unreg")

	RunSolution(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRunSolution_VisibleCasesOnly(t *testing.T) {
	setupTestDB(t)
	wireSubmissionService()

	problemID := "handler_run"
	createProblemWithCases(t, problemID)
	contest := createContest(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	register(t, contest.ID, "run_user")

	c, w := testContext("POST", "/uri", []byte(`{"code":"x","language":"python"}`))
	c.Params = gin.Params{
		{Key: "id", Value: contest.ID},
		{Key: "problemId", Value: problemID},
	}
	c.Set("userId", "run_user")

	RunSolution(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All 1 test cases passed!")
	assert.NotContains(t, w.Body.String(), "5 5")
}
