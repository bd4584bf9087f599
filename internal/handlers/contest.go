package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/utils"
)

// isAdminRequest checks the role the auth middleware stored in context.
func isAdminRequest(c *gin.Context) bool {
	role, exists := c.Get("role")
	if !exists {
		return false
	}
	r, ok := role.(string)
	return ok && r == string(models.RoleAdmin)
}

// requesterID returns the authenticated user id, or "" for anonymous.
func requesterID(c *gin.Context) string {
	userID, exists := c.Get("userId")
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}

func isRegistered(contestID, userID string) bool {
	if userID == "" {
		return false
	}
	var count int64
	database.DB.Model(&models.ContestRegistration{}).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		Count(&count)
	return count > 0
}

// ListContests handles GET /contests?status=upcoming|running|past
func ListContests(c *gin.Context) {
	now := time.Now()
	status := c.Query("status")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := database.DB.Model(&models.Contest{})
	order := "start_time asc"
	switch status {
	case "upcoming":
		query = query.Where("start_time > ?", now)
	case "running":
		query = query.Where("start_time <= ? AND end_time >= ?", now, now)
	case "past":
		query = query.Where("end_time < ?", now)
		order = "start_time desc" // most recent first
	}

	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var total int64
	query.Count(&total)

	var contests []models.Contest
	if err := query.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&contests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contests"})
		return
	}

	type contestSummary struct {
		models.Contest
		Status       models.ContestStatus `json:"status"`
		ProblemCount int                  `json:"problemCount"`
	}

	summaries := make([]contestSummary, 0, len(contests))
	for _, contest := range contests {
		contest.RatingChanges = nil // large, excluded from list view
		summaries = append(summaries, contestSummary{
			Contest:      contest,
			Status:       contest.StatusAt(now),
			ProblemCount: len(contest.Problems),
		})
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, gin.H{
		"contests": summaries,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": pages,
		},
	})
}

// GetContest handles GET /contests/:id
func GetContest(c *gin.Context) {
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

	now := time.Now()
	started := !now.Before(contest.StartTime)
	admin := isAdminRequest(c)

	var participantCount int64
	database.DB.Model(&models.ContestRegistration{}).Where("contest_id = ?", id).Count(&participantCount)

	problemCount := len(contest.Problems)
	if !started && !admin {
		// Problem identities stay hidden until the gun goes off
		contest.Problems = nil
	}
	contest.RatingChanges = nil

	c.JSON(http.StatusOK, gin.H{
		"contest": contest,
		"metadata": gin.H{
			"status":           contest.StatusAt(now),
			"problemCount":     problemCount,
			"participantCount": participantCount,
		},
		"isRegistered": isRegistered(id, requesterID(c)),
	})
}

// RegisterForContest handles POST /contests/:id/register
func RegisterForContest(c *gin.Context) {
	id := c.Param("id")
	userID := requesterID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !utils.IsUUID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID format"})
		return
	}

	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	if !contest.RegistrationOpenAt(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Registration closed. Contest has already started."})
		return
	}

	if isRegistered(id, userID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are already registered for this contest"})
		return
	}

	if contest.MaxParticipants != nil {
		var count int64
		database.DB.Model(&models.ContestRegistration{}).Where("contest_id = ?", id).Count(&count)
		if count >= int64(*contest.MaxParticipants) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Contest has reached maximum number of participants"})
			return
		}
	}

	registration := models.ContestRegistration{
		ID:        utils.GenerateID(),
		UserID:    userID,
		ContestID: id,
	}
	if err := database.DB.Create(&registration).Error; err != nil {
		// Unique index on (contest, user) turns a concurrent double-register
		// into an error here rather than a duplicate row
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are already registered for this contest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully registered for the contest",
		"data": gin.H{
			"contestId":    contest.ID,
			"contestTitle": contest.Title,
			"startTime":    contest.StartTime,
			"endTime":      contest.EndTime,
		},
	})
}

// GetContestProblems handles GET /contests/:id/problems
func GetContestProblems(c *gin.Context) {
	id := c.Param("id")
	userID := requesterID(c)
	if !utils.IsUUID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID format"})
		return
	}

	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	now := time.Now()
	admin := isAdminRequest(c)

	if now.Before(contest.StartTime) && !admin {
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "Contest has not started yet",
			"startTime":      contest.StartTime,
			"timeUntilStart": contest.StartTime.Sub(now).Milliseconds(),
		})
		return
	}
	if now.After(contest.EndTime) && !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Contest has ended", "endTime": contest.EndTime})
		return
	}
	if !isRegistered(id, userID) && !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not registered for this contest"})
		return
	}

	var problems []models.Problem
	if len(contest.Problems) > 0 {
		if err := database.DB.Preload("TestCases", "hidden = ?", false).
			Where("id IN ?", []string(contest.Problems)).
			Find(&problems).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contest problems"})
			return
		}
	}

	// Preserve the contest's problem ordering
	byID := make(map[string]models.Problem, len(problems))
	for _, p := range problems {
		byID[p.ID] = p
	}
	ordered := make([]models.Problem, 0, len(problems))
	for _, pid := range contest.Problems {
		if p, ok := byID[pid]; ok {
			ordered = append(ordered, p)
		}
	}

	timeRemaining := contest.EndTime.Sub(now)
	if timeRemaining < 0 {
		timeRemaining = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"contestId":     contest.ID,
		"contestTitle":  contest.Title,
		"problems":      ordered,
		"startTime":     contest.StartTime,
		"endTime":       contest.EndTime,
		"timeRemaining": timeRemaining.Milliseconds(),
	})
}

// GetContestProblem handles GET /contests/:id/problems/:problemId
func GetContestProblem(c *gin.Context) {
	id := c.Param("id")
	problemID := c.Param("problemId")
	userID := requesterID(c)

	var contest models.Contest
	if err := database.DB.First(&contest, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contest not found"})
		return
	}

	admin := isAdminRequest(c)
	if !isRegistered(id, userID) && !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not registered for this contest"})
		return
	}
	if contest.StatusAt(time.Now()) == models.ContestUpcoming && !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Contest has not started yet"})
		return
	}

	if !contestHasProblem(&contest, problemID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found in this contest"})
		return
	}

	var problem models.Problem
	if err := database.DB.Preload("TestCases", "hidden = ?", false).
		First(&problem, "id = ?", problemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Problem not found"})
		return
	}

	var stat models.ContestProblemStat
	contestSubmissions := 0
	contestAcceptance := 0.0
	if err := database.DB.Where("contest_id = ? AND problem_id = ?", id, problemID).First(&stat).Error; err == nil {
		contestSubmissions = stat.Submissions
		contestAcceptance = stat.AcceptanceRate()
	}

	c.JSON(http.StatusOK, gin.H{
		"problem":            problem,
		"contestSubmissions": contestSubmissions,
		"contestAcceptance":  strconv.FormatFloat(contestAcceptance, 'f', 1, 64),
	})
}

func contestHasProblem(contest *models.Contest, problemID string) bool {
	for _, pid := range contest.Problems {
		if pid == problemID {
			return true
		}
	}
	return false
}
