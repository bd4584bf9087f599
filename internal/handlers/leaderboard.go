package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

// GetContestLeaderboard handles GET /contests/:id/leaderboard
func GetContestLeaderboard(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID format"})
		return
	}

	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	leaderboard, err := services.CachedLeaderboard(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	isFinished := contest.StatusAt(time.Now()) == models.ContestFinished

	var userRank gin.H
	if userID := requesterID(c); userID != "" {
		for _, entry := range leaderboard {
			if entry.UserID == userID {
				userRank = gin.H{
					"rank":           entry.Rank,
					"problemsSolved": entry.ProblemsSolved,
					"score":          entry.Score,
					"penalty":        entry.Penalty,
				}
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"contest": gin.H{
			"id":            contest.ID,
			"title":         contest.Title,
			"startTime":     contest.StartTime,
			"endTime":       contest.EndTime,
			"isFinished":    isFinished,
			"totalProblems": len(contest.Problems),
		},
		"leaderboard": leaderboard,
		"userRank":    userRank,
		"isRealTime":  !isFinished,
	})

	// Record the served ranks so the next fetch can render deltas. Done
	// after responding; a failure only degrades the delta display.
	if err := services.SavePreviousRanks(id, leaderboard); err != nil {
		logger.Warn().Err(err).Str("contest_id", id).Msg("Failed to save previous ranks")
	}
}
