package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/handler"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Class      *handler.ClassHandler
	Attendance *handler.AttendanceHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to disable rate limiting.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", middleware.NoStore(), handlers.System.Health)

	operatorChain := []gin.HandlerFunc{
		middleware.RequireOperatorJWT(authService),
		middleware.RequireSchool(cfg.SchoolCode),
	}
	if limiter != nil {
		operatorChain = append(operatorChain, limiter.Middleware())
	}

	// ─── 1. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1/admin")
	ws.Use(operatorChain...)
	{
		ws.GET("/attendance/stream",
			middleware.RequirePermission(model.PermissionAttendanceRead),
			handlers.WS.AttendanceStream,
		)
	}

	// ─── 2. Admin Group (JWT + School + RBAC) ──────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(operatorChain...)
	adminAPI.Use(middleware.NoStore())
	{
		// Session
		adminAPI.GET("/me", handlers.Auth.Me)
		adminAPI.POST("/logout", handlers.Auth.Logout)

		adminAPI.GET("/classes",
			middleware.RequirePermission(model.PermissionClassesRead),
			middleware.PrivateMaxAge(60),
			handlers.Class.ListClasses,
		)
		adminAPI.GET("/classes/:id",
			middleware.RequirePermission(model.PermissionClassesRead),
			middleware.PrivateMaxAge(60),
			handlers.Class.GetClass,
		)

		// Marking
		adminAPI.GET("/classes/:id/attendance",
			middleware.RequirePermission(model.PermissionAttendanceRead),
			handlers.Attendance.GetSheet,
		)
		adminAPI.PUT("/classes/:id/attendance",
			middleware.RequirePermission(model.PermissionAttendanceWrite),
			handlers.Attendance.SubmitSheet,
		)

		// Analytics
		adminAPI.GET("/attendance/overview",
			middleware.RequirePermission(model.PermissionAttendanceRead),
			handlers.Attendance.SchoolOverview,
		)
		adminAPI.GET("/classes/:id/attendance/analytics",
			middleware.RequirePermission(model.PermissionAttendanceRead),
			handlers.Attendance.ClassAnalytics,
		)
		adminAPI.GET("/classes/:id/attendance/timeline",
			middleware.RequirePermission(model.PermissionAttendanceRead),
			handlers.Attendance.ClassTimeline,
		)
		adminAPI.GET("/classes/:id/attendance/register.xlsx",
			middleware.RequirePermission(model.PermissionAttendanceExport),
			handlers.Attendance.ExportClassRegister,
		)
		adminAPI.GET("/students/:id/attendance/analytics",
			middleware.RequirePermission(model.PermissionAttendanceRead),
			handlers.Attendance.StudentAnalytics,
		)
		adminAPI.GET("/students/:id/attendance/export",
			middleware.RequirePermission(model.PermissionAttendanceExport),
			handlers.Attendance.ExportStudent,
		)
		adminAPI.POST("/students/:id/attendance/import",
			middleware.RequirePermission(model.PermissionAttendanceWrite),
			handlers.Attendance.ImportStudent,
		)

		// System Monitoring
		adminAPI.GET("/system/metrics",
			handlers.System.SystemMetricsSSE, // Open to all operators
		)
	}

	return router
}
