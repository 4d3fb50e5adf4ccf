package main

import (
	"fmt"
	"log/slog"
	"os"

	"italian-cge/internal/api/handlers"
	"italian-cge/internal/api/middleware"
	"italian-cge/internal/calibration"
	"italian-cge/internal/config"
	"italian-cge/internal/registry"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.Default()
	if path := os.Getenv("CGE_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Error("failed to load config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Calibrate once at startup; every request solves from the same
	// base-year parameter snapshot.
	defs := registry.NewDefinitions()
	par, err := calibration.Load(defs, cfg.SAMFile, cfg.Targets(), log)
	if err != nil {
		log.Error("calibration failed", "error", err)
		os.Exit(1)
	}
	log.Info("calibrated", "base_year", par.BaseYear, "gdp_bn", par.GDP()/1000.0)

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	// Initialize handlers
	simulationHandler := handlers.NewSimulationHandler(defs, par, log)
	registryHandler := handlers.NewRegistryHandler(defs)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "base_year": par.BaseYear})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulationHandler.RunSimulation)

		api.GET("/sectors", registryHandler.ListSectors)
		api.GET("/regions", registryHandler.ListRegions)
		api.GET("/scenarios", registryHandler.ListScenarios)
		api.GET("/policies", registryHandler.ListPolicies)
	}

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Info("starting API server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
