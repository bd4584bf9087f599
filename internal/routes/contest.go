package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/handlers"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/middleware"
)

func RegisterContestRoutes(r gin.IRouter) {
	contests := r.Group("/contests")
	{
		// Public (optional auth so responses can include registration status)
		contests.GET("", middleware.OptionalAuthMiddleware(), handlers.ListContests)
		contests.GET("/:id", middleware.OptionalAuthMiddleware(), handlers.GetContest)

		protected := contests.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/:id/register", handlers.RegisterForContest)

			// Problems are gated on registration and contest start
			protected.GET("/:id/problems", handlers.GetContestProblems)
			protected.GET("/:id/problems/:problemId", handlers.GetContestProblem)

			protected.POST("/:id/problems/:problemId/submit", middleware.SubmitRateLimit(), handlers.SubmitSolution)
			protected.POST("/:id/problems/:problemId/run", middleware.ExecuteRateLimit(), handlers.RunSolution)

			protected.GET("/:id/leaderboard", handlers.GetContestLeaderboard)
			protected.GET("/:id/results", handlers.GetContestResults)

			admin := protected.Group("/")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.POST("", handlers.AdminCreateContest)
				admin.POST("/:id/finalize", handlers.AdminFinalizeContest)
			}
		}
	}
}
