package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

func insertAccepted(t *testing.T, contestID, userID, problemID string, points, penalty int, at time.Time) {
	t.Helper()
	sub := models.ContestSubmission{
		ID:        utils.GenerateID(),
		UserID:    userID,
		ContestID: contestID,
		ProblemID: problemID,
		Status:    models.StatusAccepted,
		Verdict:   "Accepted",
		Points:    points,
		Penalty:   penalty,
		CreatedAt: at,
	}
	assert.NoError(t, database.DB.Create(&sub).Error)
}

func TestGetContestLeaderboard_RanksAndUserRank(t *testing.T) {
	setupTestDB(t)
	contest := createContest(t, time.Now().Add(-2*time.Hour), time.Now().Add(time.Hour))

	insertAccepted(t, contest.ID, "lb_first", "p1", 100, 0, time.Now().Add(-90*time.Minute))
	insertAccepted(t, contest.ID, "lb_second", "p1", 100, 0, time.Now().Add(-30*time.Minute))

	c, w := testContext("GET", "/uri", nil)
	c.Params = gin.Params{{Key: "id", Value: contest.ID}}
	c.Set("userId", "lb_second")

	GetContestLeaderboard(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Leaderboard []struct {
			UserID string `json:"userId"`
			Rank   int    `json:"rank"`
		} `json:"leaderboard"`
		UserRank struct {
			Rank int `json:"rank"`
		} `json:"userRank"`
		IsRealTime bool `json:"isRealTime"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, "lb_first", resp.Leaderboard[0].UserID)
	assert.Equal(t, 2, resp.UserRank.Rank)
	assert.True(t, resp.IsRealTime)

	// Serving the board records ranks for delta display on the next fetch
	var saved int64
	database.DB.Model(&models.PreviousRank{}).Where("contest_id = ?", contest.ID).Count(&saved)
	assert.Equal(t, int64(2), saved)
}

func TestGetContestLeaderboard_NotFound(t *testing.T) {
	setupTestDB(t)

	c, w := testContext("GET", "/uri", nil)
	c.Params = gin.Params{{Key: "id", Value: utils.GenerateID()}}

	GetContestLeaderboard(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetContestResults_OnlyWhenFinished(t *testing.T) {
	setupTestDB(t)
	contest := createContest(t, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	c, w := testContext("GET", "/uri", nil)
	c.Params = gin.Params{{Key: "id", Value: contest.ID}}

	GetContestResults(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "finished contests")
}

func TestGetContestResults_LettersAndTimeTaken(t *testing.T) {
	setupTestDB(t)

	problemID := "results_p1"
	createProblemWithCases(t, problemID)

	start := time.Now().Add(-4 * time.Hour)
	contest := &models.Contest{
		ID:        utils.GenerateID(),
		Title:     "Finished Sprint",
		StartTime: start,
		EndTime:   time.Now().Add(-time.Hour),
		Problems:  []string{problemID},
	}
	assert.NoError(t, database.DB.Create(contest).Error)

	insertAccepted(t, contest.ID, "results_user", problemID, 100, 0, start.Add(95*time.Minute))

	c, w := testContext("GET", "/uri", nil)
	c.Params = gin.Params{{Key: "id", Value: contest.ID}}

	GetContestResults(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Leaderboard []struct {
			Rank           int    `json:"rank"`
			TimeTaken      string `json:"timeTaken"`
			ProblemsSolved []struct {
				Letter string `json:"letter"`
			} `json:"problemsSolved"`
		} `json:"leaderboard"`
		IsFinalized bool `json:"isFinalized"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Leaderboard, 1)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
	assert.Equal(t, "1h 35m", resp.Leaderboard[0].TimeTaken)
	assert.Len(t, resp.Leaderboard[0].ProblemsSolved, 1)
	assert.Equal(t, "A", resp.Leaderboard[0].ProblemsSolved[0].Letter)
	assert.False(t, resp.IsFinalized)
}

func TestAdminFinalizeContest_SecondCall409(t *testing.T) {
	setupTestDB(t)
	Finalizer = services.NewFinalizer(time.Minute, services.NoopBroadcaster{})

	contest := &models.Contest{
		ID:        utils.GenerateID(),
		Title:     "To Finalize",
		StartTime: time.Now().Add(-3 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	}
	assert.NoError(t, database.DB.Create(contest).Error)

	c, w := testContext("POST", "/uri", nil)
	c.Params = gin.Params{{Key: "id", Value: contest.ID}}
	c.Set("userId", "admin_fin")
	c.Set("role", string(models.RoleAdmin))

	AdminFinalizeContest(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c2, w2 := testContext("POST", "/uri", nil)
	c2.Params = gin.Params{{Key: "id", Value: contest.ID}}
	c2.Set("userId", "admin_fin")
	c2.Set("role", string(models.RoleAdmin))

	AdminFinalizeContest(c2)
	assert.Equal(t, http.StatusConflict, w2.Code)
	assert.Contains(t, w2.Body.String(), "already finalized")
}
