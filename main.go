package main

import (
	"time"

	"gemhall/auth"
	"gemhall/database"
	"gemhall/handlers"
	"gemhall/internal/game"
	"gemhall/internal/session"
	"gemhall/models"
	"gemhall/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := utils.InitLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	config, err := models.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	auth.SetKey(config.JWTSecret)

	catalog, err := game.LoadCatalog(config.CatalogPath)
	if err != nil {
		logger.Fatal("Failed to load card catalog", zap.Error(err))
	}

	rdb, err := database.InitRedis(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	registry := session.NewRegistry(logger)
	go utils.CronCleaner(registry, time.Duration(config.RoomTTLHours)*time.Hour, logger)

	hub := handlers.NewHub(registry, rdb, catalog, config, logger)

	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "SessionID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/token", func(c *gin.Context) {
		handlers.TokenHandler(c, logger)
	})
	router.GET("/health", func(c *gin.Context) {
		handlers.HealthHandler(c, registry)
	})
	router.GET("/ws", hub.HandleWS)

	if err := router.Run(config.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
