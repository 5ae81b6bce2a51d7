package main

import (
	"net/http"
	"os"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"watermap-api/config"
	"watermap-api/handlers"
	"watermap-api/helper"
	"watermap-api/middleware"
	"watermap-api/models"
	"watermap-api/repositories"
	"watermap-api/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found")
	}

	// Initialize database
	db := config.InitDB()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	waterObjectRepo := repositories.NewWaterObjectRepository(db)
	changeLogRepo := repositories.NewChangeLogRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	waterObjectService := services.NewWaterObjectService(waterObjectRepo, changeLogRepo)
	catalogService := services.NewCatalogService(waterObjectRepo)
	adminService := services.NewAdminService(userRepo, waterObjectRepo)

	// Initialize handlers
	httpHelper := helper.NewHTTPHelper()
	authHandler := handlers.NewAuthHandler(authService, httpHelper)
	waterObjectHandler := handlers.NewWaterObjectHandler(waterObjectService, httpHelper)
	catalogHandler := handlers.NewCatalogHandler(catalogService, httpHelper)
	adminHandler := handlers.NewAdminHandler(waterObjectService, adminService, httpHelper)

	// Setup router
	router := gin.New()
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public catalog (published rows only)
		v1.GET("/water-objects", catalogHandler.GetWaterObjects)
		v1.GET("/water-objects/:id", catalogHandler.GetWaterObject)

		// Protected routes
		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// Profile
			protected.GET("/profile", authHandler.GetProfile)

			// Version history for one lineage
			protected.GET("/water-objects/:id/history", waterObjectHandler.GetHistory)

			// Expert editing surface
			expert := protected.Group("/")
			expert.Use(middleware.RequireRole(string(models.RoleExpert), string(models.RoleAdmin)))
			{
				expert.GET("/my/water-objects", waterObjectHandler.GetMyWaterObjects)
				expert.POST("/water-objects", waterObjectHandler.CreateWaterObject)
				expert.PUT("/water-objects/:id", waterObjectHandler.UpdateWaterObject)
				expert.POST("/water-objects/:id/submit", waterObjectHandler.SubmitWaterObject)
				expert.POST("/water-objects/:id/revisions", waterObjectHandler.CreateRevision)
				expert.DELETE("/water-objects/:id", waterObjectHandler.DeleteWaterObject)
			}

			// Admin review surface
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
			{
				admin.GET("/pending", adminHandler.GetPending)
				admin.GET("/pending/:id/diff", adminHandler.GetPendingDiff)
				admin.POST("/approve/:id", adminHandler.ApproveWaterObject)
				admin.POST("/reject/:id", adminHandler.RejectWaterObject)
				admin.GET("/users", adminHandler.GetUsers)
				admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
				admin.GET("/stats", adminHandler.GetStats)
			}
		}
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zap.L().Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
