package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/controllers"
	"github.com/taoyuan-youth/civic-server/gemini"
	"github.com/taoyuan-youth/civic-server/routes"
)

func main() {
	config.Load()
	config.ConnectDB()

	controllers.HistoryLimit = config.App.ChatHistoryLimit

	// Missing Gemini credentials leave the chat endpoint in degraded mode
	// rather than blocking the rest of the service.
	rag, err := gemini.New(context.Background(), gemini.Config{
		APIKey:       config.App.GeminiAPIKey,
		Model:        config.App.GeminiModel,
		StoreName:    config.App.RAGStoreName,
		DisplayName:  config.App.RAGStoreDisplay,
		DataDir:      config.App.RAGDataDir,
		SystemPrompt: config.App.SystemPrompt,
	})
	if err != nil {
		log.WithError(err).Warn("Gemini unavailable, chat runs degraded")
	} else {
		controllers.RAG = rag
		controllers.KB = rag
	}

	r := gin.Default()

	frontend := config.App.FrontendOrigin
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return frontend == "*" || origin == frontend
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Survey-Edit-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Civic service backend is running")
	})

	if err := r.SetTrustedProxies(nil); err != nil {
		log.WithError(err).Fatal("cannot configure trusted proxies")
	}

	routes.SetupRoutes(r)

	log.WithField("port", config.App.Port).Info("server listening")
	if err := r.Run(":" + config.App.Port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
