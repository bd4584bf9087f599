package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

// problemLetter maps a zero-based contest position to A, B, C...
func problemLetter(index int) string {
	return string(rune('A' + index))
}

// GetContestResults handles GET /contests/:id/results
// Final standings plus per-problem contest-scoped statistics. Only served
// once the contest has finished.
func GetContestResults(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID format"})
		return
	}

	var contest models.Contest
	if err := database.DB.Preload("ProblemStats").First(&contest, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	if contest.StatusAt(time.Now()) != models.ContestFinished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Results are only available for finished contests"})
		return
	}

	leaderboard, err := services.CalculateLeaderboard(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contest results"})
		return
	}

	statByProblem := make(map[string]models.ContestProblemStat, len(contest.ProblemStats))
	for _, stat := range contest.ProblemStats {
		statByProblem[stat.ProblemID] = stat
	}

	var problems []models.Problem
	if len(contest.Problems) > 0 {
		database.DB.Where("id IN ?", []string(contest.Problems)).Find(&problems)
	}
	problemByID := make(map[string]models.Problem, len(problems))
	for _, p := range problems {
		problemByID[p.ID] = p
	}

	problemMap := make(map[string]gin.H, len(contest.Problems))
	problemViews := make([]gin.H, 0, len(contest.Problems))
	for i, pid := range contest.Problems {
		problemMap[pid] = gin.H{
			"id":       pid,
			"letter":   problemLetter(i),
			"position": i + 1,
		}

		p, ok := problemByID[pid]
		if !ok {
			continue
		}
		stat := statByProblem[pid]
		problemViews = append(problemViews, gin.H{
			"id":                pid,
			"title":             p.Title,
			"difficulty":        p.Difficulty,
			"submissions":       stat.Submissions,
			"accepted":          stat.Accepted,
			"acceptance":        strconv.FormatFloat(stat.AcceptanceRate(), 'f', 1, 64),
			"globalSubmissions": p.Submissions,
			"globalAccepted":    p.Accepted,
		})
	}

	var participantCount int64
	database.DB.Model(&models.ContestRegistration{}).Where("contest_id = ?", id).Count(&participantCount)

	// Annotate standings with solved-problem letters and total time taken
	enhanced := make([]gin.H, 0, len(leaderboard))
	for _, entry := range leaderboard {
		details := make([]gin.H, 0, len(entry.SolvedProblemIDs))
		for _, pid := range entry.SolvedProblemIDs {
			if info, ok := problemMap[pid]; ok {
				details = append(details, info)
			}
		}

		timeTaken := "-"
		if entry.ProblemsSolved > 0 {
			minutes := int(entry.LastSubmissionTime.Sub(contest.StartTime).Minutes())
			if minutes < 0 {
				minutes = 0
			}
			if hours := minutes / 60; hours > 0 {
				timeTaken = strconv.Itoa(hours) + "h " + strconv.Itoa(minutes%60) + "m"
			} else {
				timeTaken = strconv.Itoa(minutes) + "m"
			}
		}

		enhanced = append(enhanced, gin.H{
			"userId":         entry.UserID,
			"name":           entry.Name,
			"username":       entry.Username,
			"rank":           entry.Rank,
			"problemsSolved": details,
			"score":          entry.Score,
			"penalty":        entry.Penalty,
			"timeTaken":      timeTaken,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"contestId":    id,
		"title":        contest.Title,
		"startTime":    contest.StartTime,
		"endTime":      contest.EndTime,
		"participants": participantCount,
		"isFinalized":  contest.IsFinalized,
		"problems":     problemViews,
		"leaderboard":  enhanced,
		"problemMap":   problemMap,
	})
}
