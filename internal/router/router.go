package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/handler"
	"github.com/stemsi/dropwatch/internal/metrics"
	"github.com/stemsi/dropwatch/internal/middleware"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Student      *handler.StudentHandler
	Prediction   *handler.PredictionHandler
	Import       *handler.ImportHandler
	Intervention *handler.InterventionHandler
	Dashboard    *handler.DashboardHandler
	AdminUser    *handler.AdminUserHandler
	WS           *handler.WSHandler
	System       *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by the router, such as the rate
// limiter's cleanup loop.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so access logs and error envelopes share it.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(metrics.Middleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		// SSE must reach the client event by event.
		Skipper: func(c *gin.Context) bool {
			return c.FullPath() == "/api/v1/admin/system/metrics"
		},
	}))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(ctx, 30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(middleware.NoStore())
	{
		authAPI.POST("/admin/login", authLimiter.Middleware(), handlers.Auth.AdminLogin)
		authAPI.GET("/admin/me", middleware.RequireAdminJWT(auth), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(auth))
	{
		ws.GET("/admin/predictions/stream", handlers.WS.PredictionStream)
	}

	// ─── 3. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(auth), middleware.NoStore())
	{
		adminAPI.GET("/dashboard",
			middleware.RequirePermission(model.PermissionStudentsRead),
			handlers.Dashboard.GetDashboardData,
		)

		// Student management
		adminAPI.GET("/students",
			middleware.RequirePermission(model.PermissionStudentsRead),
			handlers.Student.ListStudents,
		)
		adminAPI.POST("/students",
			middleware.RequirePermission(model.PermissionStudentsWrite),
			handlers.Student.CreateStudent,
		)
		adminAPI.POST("/students/import",
			middleware.RequirePermission(model.PermissionStudentsImport),
			handlers.Import.ImportStudents,
		)
		adminAPI.GET("/students/:id",
			middleware.RequirePermission(model.PermissionStudentsRead),
			handlers.Student.GetStudent,
		)
		adminAPI.PUT("/students/:id",
			middleware.RequirePermission(model.PermissionStudentsWrite),
			handlers.Student.UpdateStudent,
		)
		adminAPI.DELETE("/students/:id",
			middleware.RequirePermission(model.PermissionStudentsWrite),
			handlers.Student.DeleteStudent,
		)
		adminAPI.GET("/students/:id/risk",
			middleware.RequirePermission(model.PermissionStudentsRead),
			handlers.Student.PreviewRisk,
		)

		// Interventions
		adminAPI.GET("/students/:id/interventions",
			middleware.RequirePermission(model.PermissionInterventionsRead),
			handlers.Intervention.ListInterventions,
		)
		adminAPI.POST("/students/:id/interventions",
			middleware.RequirePermission(model.PermissionInterventionsWrite),
			handlers.Intervention.CreateIntervention,
		)
		adminAPI.DELETE("/interventions/:id",
			middleware.RequirePermission(model.PermissionInterventionsWrite),
			handlers.Intervention.DeleteIntervention,
		)

		// Predictions
		adminAPI.POST("/predictions",
			middleware.RequirePermission(model.PermissionPredictionsRun),
			handlers.Prediction.RunPrediction,
		)
		adminAPI.POST("/predictions/async",
			middleware.RequirePermission(model.PermissionPredictionsRun),
			handlers.Prediction.QueuePrediction,
		)

		// Admin user management
		adminAPI.GET("/users",
			middleware.RequirePermission(model.PermissionAdminsManage),
			handlers.AdminUser.ListAdmins,
		)
		adminAPI.POST("/users",
			middleware.RequirePermission(model.PermissionAdminsManage),
			handlers.AdminUser.CreateAdmin,
		)
		adminAPI.DELETE("/users/:id",
			middleware.RequirePermission(model.PermissionAdminsManage),
			handlers.AdminUser.DeleteAdmin,
		)
		adminAPI.GET("/roles",
			middleware.RequirePermission(model.PermissionAdminsManage),
			handlers.AdminUser.ListRoles,
		)

		// System
		adminAPI.GET("/system/metrics",
			middleware.RequirePermission(model.PermissionPredictionsRun),
			handlers.System.SystemMetricsSSE,
		)
	}

	return router
}
