package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"room-reservation/pkg/middleware"
)

func setupRouter(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
	}))

	g := r.Group("/reservation")
	g.GET("/:id", getReservation)
	g.GET("", searchReservations)
	g.POST("", createReservation)
	g.POST("/:id", updateReservation)
	g.DELETE("/:id/cancel", cancelReservation)
	g.POST("/:id/approve", approveReservation)
	g.POST("/availability/check", checkAvailability)

	r.GET("/manage/health", healthCheck)
	return r
}
