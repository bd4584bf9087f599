package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
)

// GetMyRating handles GET /users/me/rating
func GetMyRating(c *gin.Context) {
	userID := requesterID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := database.DB.Select("id", "rating").First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rating": user.EffectiveRating()})
}

// GetMyContestStats handles GET /users/me/contest-stats
// Participation summary across every contest the user submitted to.
func GetMyContestStats(c *gin.Context) {
	userID := requesterID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var submissions []models.ContestSubmission
	if err := database.DB.Where("user_id = ?", userID).Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user stats"})
		return
	}

	contestIDs := make([]string, 0)
	seen := make(map[string]bool)
	totalScore := 0
	for _, sub := range submissions {
		totalScore += sub.Points
		if !seen[sub.ContestID] {
			seen[sub.ContestID] = true
			contestIDs = append(contestIDs, sub.ContestID)
		}
	}

	bestRank := 0
	top10Finishes := 0
	for _, contestID := range contestIDs {
		leaderboard, err := services.CalculateLeaderboard(contestID)
		if err != nil {
			continue
		}
		for _, entry := range leaderboard {
			if entry.UserID != userID {
				continue
			}
			if bestRank == 0 || entry.Rank < bestRank {
				bestRank = entry.Rank
			}
			if entry.Rank <= 10 {
				top10Finishes++
			}
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"contestsJoined": len(contestIDs),
		"top10Finishes":  top10Finishes,
		"bestRank":       bestRank,
		"totalScore":     totalScore,
	})
}
