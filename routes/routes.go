package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/controllers"
	"github.com/taoyuan-youth/civic-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", controllers.Ping)
	r.GET("/health", controllers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Static("/uploads", config.App.UploadDir)

	// Public survey form plus the endpoints its embedded script talks to.
	r.GET("/survey/form", controllers.SurveyFormPage)
	r.GET("/__survey_load", controllers.SurveyLoad)
	r.POST("/__survey_submit", middleware.OptionalSession(), middleware.RateLimitSubmit(), controllers.SurveySubmit)

	api := r.Group("/api")
	{
		api.POST("/chat", middleware.RateLimitChat(), controllers.Chat)

		auth := api.Group("/auth")
		{
			auth.GET("/config", controllers.AuthConfig)
			auth.GET("/google/callback", controllers.GoogleCallback)
			auth.GET("/line/callback", controllers.LineCallback)
			auth.GET("/facebook/callback", controllers.FacebookCallback)
			auth.POST("/google/login", controllers.GoogleTokenLogin)
		}
		api.GET("/user", middleware.RequireSession(), controllers.CurrentUser)
		api.POST("/logout", controllers.Logout)

		surveys := api.Group("/surveys")
		{
			surveys.POST("", controllers.RegisterSurvey)
			surveys.GET("", controllers.ListSurveys)
			surveys.GET("/:id", controllers.GetSurvey)
			surveys.PUT("/:id", middleware.RequireSurveyEditor(), controllers.UpdateSurvey)
			surveys.DELETE("/:id", middleware.RequireSurveyEditor(), controllers.DeactivateSurvey)
			surveys.GET("/:id/responses", middleware.RequireSurveyEditor(), controllers.ListResponses)
			surveys.GET("/:id/export", middleware.RequireSurveyEditor(), controllers.ExportResponses)
		}

		api.POST("/kb/documents", controllers.UploadKBDocument)
		api.GET("/kb/check", controllers.CheckKB)
	}

	// Legacy alias kept for embedded widgets that still post here.
	r.POST("/chat", middleware.RateLimitChat(), controllers.Chat)
}
