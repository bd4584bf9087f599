package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

type CreateContestInput struct {
	Title                string   `json:"title" binding:"required"`
	Description          string   `json:"description"`
	Difficulty           string   `json:"difficulty"`
	StartTime            string   `json:"startTime" binding:"required"` // RFC3339
	EndTime              string   `json:"endTime" binding:"required"`
	RegistrationDeadline string   `json:"registrationDeadline"`
	Problems             []string `json:"problems"`
	MaxParticipants      *int     `json:"maxParticipants"`
}

// AdminCreateContest handles POST /contests (admin only)
func AdminCreateContest(c *gin.Context) {
	var input CreateContestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startTime, err := time.Parse(time.RFC3339, input.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startTime, expected RFC3339"})
		return
	}
	endTime, err := time.Parse(time.RFC3339, input.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endTime, expected RFC3339"})
		return
	}
	if !endTime.After(startTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endTime must be after startTime"})
		return
	}

	var regDeadline *time.Time
	if input.RegistrationDeadline != "" {
		d, err := time.Parse(time.RFC3339, input.RegistrationDeadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registrationDeadline, expected RFC3339"})
			return
		}
		regDeadline = &d
	}

	difficulty := models.Difficulty(input.Difficulty)
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	contest := models.Contest{
		ID:                   utils.GenerateID(),
		Title:                input.Title,
		Description:          input.Description,
		Difficulty:           difficulty,
		StartTime:            startTime,
		EndTime:              endTime,
		RegistrationDeadline: regDeadline,
		Problems:             input.Problems,
		MaxParticipants:      input.MaxParticipants,
		CreatedBy:            requesterID(c),
	}

	if err := database.DB.Create(&contest).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contest"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contest": contest})
}

// AdminFinalizeContest handles POST /contests/:id/finalize (admin only)
// Manual trigger for the same exactly-once path the scheduler drives.
func AdminFinalizeContest(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID format"})
		return
	}

	result, err := Finalizer.Finalize(id)
	if err != nil {
		respondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contest finalized successfully",
		"data":    result,
	})
}
