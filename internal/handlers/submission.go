package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
	apperrors "github.com/abhisek2004/Dev-Elevate-sub000/pkg/errors"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

type SubmitSolutionInput struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
}

type RunSolutionInput struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// outcomeView shapes one test case outcome for the response, truncating
// large payloads.
func outcomeView(o services.TestCaseOutcome, max int) gin.H {
	return gin.H{
		"testCaseId":     o.TestCaseID,
		"input":          truncate(o.Input, max),
		"expectedOutput": truncate(o.ExpectedOutput, max),
		"actualOutput":   truncate(o.ActualOutput, max),
		"status":         o.Status,
		"verdict":        o.Verdict,
		"executionTime":  o.ExecutionTime,
		"memory":         o.Memory,
		"passed":         o.Passed,
	}
}

func respondAppError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// SubmitSolution handles POST /contests/:id/problems/:problemId/submit
func SubmitSolution(c *gin.Context) {
	contestID := c.Param("id")
	problemID := c.Param("problemId")
	userID := requesterID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !utils.IsUUID(contestID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID format"})
		return
	}

	var input SubmitSolutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code and language are required"})
		return
	}

	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	now := time.Now()
	if !contest.AcceptsSubmissionsAt(now) {
		msg := "Contest has ended"
		if now.Before(contest.StartTime) {
			msg = "Contest has not started yet"
		}
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
		return
	}

	if !isRegistered(contestID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not registered for this contest"})
		return
	}

	if !contestHasProblem(&contest, problemID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This problem is not part of the contest"})
		return
	}

	var problem models.Problem
	if err := database.DB.Preload("TestCases").First(&problem, "id = ?", problemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		return
	}

	outcome, err := Submissions.Submit(c.Request.Context(), &contest, &problem, userID, input.Code, input.Language)
	if err != nil {
		respondAppError(c, err)
		return
	}

	if outcome.AlreadySolved {
		c.JSON(http.StatusOK, gin.H{
			"message": "You have already solved this problem",
			"data":    gin.H{"submission": outcome.Submission},
		})
		return
	}

	accepted := outcome.Submission.Status == models.StatusAccepted
	message := "Some test cases failed"
	if accepted {
		message = "All test cases passed!"
	}

	// Hidden test cases never leave the server
	visible := make([]gin.H, 0, len(outcome.Outcomes))
	for _, o := range outcome.Outcomes {
		if o.Hidden {
			continue
		}
		visible = append(visible, outcomeView(o, 100))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"submission": gin.H{
				"id":          outcome.Submission.ID,
				"status":      outcome.Submission.Status,
				"verdict":     outcome.Submission.Verdict,
				"points":      outcome.Submission.Points,
				"penalty":     outcome.Submission.Penalty,
				"attempts":    outcome.Submission.Attempts,
				"runtime":     outcome.Submission.Runtime,
				"memory":      outcome.Submission.Memory,
				"testResults": visible,
			},
		},
	})
}

// RunSolution handles POST /contests/:id/problems/:problemId/run
// Dry run against visible test cases only; nothing is persisted.
func RunSolution(c *gin.Context) {
	contestID := c.Param("id")
	problemID := c.Param("problemId")
	userID := requesterID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input RunSolutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code and language are required"})
		return
	}

	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	if !isRegistered(contestID, userID) && !isAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not registered for this contest"})
		return
	}

	var problem models.Problem
	if err := database.DB.Preload("TestCases").First(&problem, "id = ?", problemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		return
	}

	outcomes, err := Submissions.Run(c.Request.Context(), &problem, input.Code, input.Language)
	if err != nil {
		respondAppError(c, err)
		return
	}

	passedCount := 0
	for _, o := range outcomes {
		if o.Passed {
			passedCount++
		}
	}

	message := fmt.Sprintf("%d/%d test cases passed", passedCount, len(outcomes))
	if passedCount == len(outcomes) {
		message = fmt.Sprintf("All %d test cases passed!", passedCount)
	}

	views := make([]gin.H, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, outcomeView(o, 1000))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    gin.H{"testResults": views},
	})
}
