package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/handlers"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/middleware"
)

func RegisterUserRoutes(r gin.IRouter) {
	users := r.Group("/users")
	{
		me := users.Group("/me")
		me.Use(middleware.AuthMiddleware())
		{
			me.GET("/rating", handlers.GetMyRating)
			me.GET("/contest-stats", handlers.GetMyContestStats)
		}
	}
}
