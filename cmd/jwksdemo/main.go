// Command jwksdemo wires the jwkset decorator stack into a minimal gin
// server that protects a single route with RequireJWT.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NomadCrew/jwkset-resolver/config"
	"github.com/NomadCrew/jwkset-resolver/logger"
	"github.com/NomadCrew/jwkset-resolver/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.GetLogger().Fatalw("failed to load configuration", "error", err)
	}

	validator, err := middleware.NewJWTValidator(cfg)
	if err != nil {
		logger.GetLogger().Fatalw("failed to build JWT validator", "error", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api")
	protected.Use(middleware.RequireJWT(validator))
	protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(string(middleware.UserIDKey))})
	})

	logger.GetLogger().Infow("starting server", "port", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.GetLogger().Fatalw("server exited", "error", err)
	}
}
