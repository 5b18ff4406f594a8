package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/handler"
	"github.com/stemsi/student-dashboard/internal/middleware"
	"github.com/stemsi/student-dashboard/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Student    *handler.StudentHandler
	Statistics *handler.StatisticsHandler
	Transfer   *handler.TransferHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to disable rate limiting.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode != gin.TestMode {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.GET("/subjects", middleware.CacheControl(300), handlers.Student.GetSubjects)

	// ─── Students ──────────────────────────────────────────────────────
	students := api.Group("/students")
	students.Use(middleware.NoStore())
	{
		students.GET("", handlers.Student.ListStudents)
		students.POST("", handlers.Student.CreateStudent)
		students.GET("/search", handlers.Student.SearchStudents)
		students.GET("/:roll_no", handlers.Student.GetStudent)
		students.PATCH("/:roll_no", handlers.Student.UpdateStudent)
		students.DELETE("/:roll_no", handlers.Student.DeleteStudent)
	}

	// ─── Statistics ────────────────────────────────────────────────────
	stats := api.Group("/statistics")
	stats.Use(middleware.NoStore())
	{
		stats.GET("", handlers.Statistics.GetStatistics)
		stats.GET("/highest-scorer", handlers.Statistics.GetHighestScorer)
		stats.GET("/subject-averages", handlers.Statistics.GetSubjectAverages)
	}

	// ─── Export / Import ───────────────────────────────────────────────
	export := api.Group("/export")
	export.Use(middleware.NoStore())
	{
		export.GET("/csv", handlers.Transfer.ExportCSV)
		export.GET("/json", handlers.Transfer.ExportJSON)
		export.GET("/xlsx", handlers.Transfer.ExportXLSX)
	}

	imports := api.Group("/import")
	{
		imports.POST("/csv", handlers.Transfer.ImportCSV)
		imports.POST("/json", handlers.Transfer.ImportJSON)
	}

	return router
}
