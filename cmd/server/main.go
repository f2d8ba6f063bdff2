package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"proptax/internal/config"
	"proptax/internal/database"
	"proptax/internal/handlers"
	"proptax/internal/logger"
	"proptax/internal/middleware"
	"proptax/internal/repository"
	"proptax/internal/services"
	"proptax/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting property tax registry", map[string]interface{}{
		"version":     "0.1.0",
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Open the registry database and apply the schema
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", err, map[string]interface{}{
			"path": cfg.Database.Path,
		})
	}
	defer db.Close()

	log.Info("Database opened", map[string]interface{}{
		"path": db.Path(),
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize storage, repository and service layers
	records := store.New(db)

	personRepo := repository.NewPersonRepository(records)
	landTypeRepo := repository.NewLandTypeRepository(records)
	estateTypeRepo := repository.NewEstateTypeRepository(records)
	salaryRepo := repository.NewSalaryRepository(records)
	valuationRepo := repository.NewValuationRepository(records)
	parcelRepo := repository.NewLandParcelRepository(records, landTypeRepo, valuationRepo)
	estateRepo := repository.NewRealEstateRepository(records, estateTypeRepo, salaryRepo)

	assessmentService := services.NewAssessmentService(
		landTypeRepo, estateTypeRepo, salaryRepo, valuationRepo, parcelRepo, estateRepo, log)

	// Initialize handlers
	personHandler := handlers.NewPersonHandler(personRepo)
	parcelHandler := handlers.NewLandParcelHandler(parcelRepo, assessmentService)
	estateHandler := handlers.NewRealEstateHandler(estateRepo, assessmentService)
	taxonomyHandler := handlers.NewTaxonomyHandler(landTypeRepo, estateTypeRepo, assessmentService)
	referenceHandler := handlers.NewReferenceHandler(salaryRepo, assessmentService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		persons := v1.Group("/persons")
		{
			persons.GET("", personHandler.List)
			persons.GET("/names", personHandler.Names)
			persons.GET("/:id", personHandler.Get)
			persons.POST("", personHandler.Create)
			persons.PUT("/:id", personHandler.Update)
			persons.DELETE("/:id", personHandler.Delete)
		}

		parcels := v1.Group("/land-parcels")
		{
			parcels.GET("", parcelHandler.List)
			parcels.POST("", parcelHandler.Create)
			parcels.PUT("/:id", parcelHandler.Update)
			parcels.DELETE("/:id", parcelHandler.Delete)
			parcels.POST("/recalculate", parcelHandler.Recalculate)
			parcels.POST("/valuations/copy-forward", referenceHandler.CopyValuations)
		}

		estates := v1.Group("/real-estate")
		{
			estates.GET("", estateHandler.List)
			estates.POST("", estateHandler.Create)
			estates.PUT("/:id", estateHandler.Update)
			estates.DELETE("/:id", estateHandler.Delete)
			estates.POST("/recalculate", estateHandler.Recalculate)
		}

		landTypes := v1.Group("/land-types")
		{
			landTypes.GET("/rates", taxonomyHandler.ListLandRates)
			landTypes.PUT("/rates", taxonomyHandler.UpsertLandRate)
			landTypes.DELETE("/rates", taxonomyHandler.DeleteLandRate)
		}

		estateTypes := v1.Group("/estate-types")
		{
			estateTypes.GET("/rates", taxonomyHandler.ListEstateRates)
			estateTypes.PUT("/rates", taxonomyHandler.UpsertEstateRate)
			estateTypes.DELETE("/rates", taxonomyHandler.DeleteEstateRate)
		}

		v1.GET("/minimum-salary/:year", referenceHandler.GetSalary)
		v1.PUT("/minimum-salary/:year", referenceHandler.SetSalary)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
