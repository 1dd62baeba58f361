package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/handler"
	"github.com/unisphere/exam-backend/internal/middleware"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	AdminExam *handler.AdminExamHandler
	AdminUser *handler.AdminUserHandler
	Monitor   *handler.MonitorHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by the router, such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// Uploaded files are immutable, so they are cached for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api")
	api.Use(middleware.NoStore())

	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRatePerMinute, cfg.AuthRateBurst)

	// ─── 1. User Auth (Public, Rate Limited) ───────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		auth.GET("/me", middleware.RequireUserJWT(authService, log), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireUserJWT(authService, log), handlers.Auth.Logout)
	}

	// ─── 2. User Exams (User JWT) ──────────────────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.RequireUserJWT(authService, log))
	{
		exams.GET("", handlers.Exam.ListOpen)
		exams.GET("/results", handlers.Exam.ListResults)
		exams.GET("/:id", handlers.Exam.GetPaper)
		exams.POST("/:id/start", handlers.Exam.Start)
		exams.POST("/:id/submit", handlers.Exam.Submit)
		exams.GET("/:id/results", handlers.Exam.Result)
	}

	// ─── 3. Admin Login (Public, Rate Limited) ─────────────────────────
	api.POST("/admin/login", authLimiter.Middleware(), handlers.Auth.AdminLogin)

	// ─── 4. Admin (Admin JWT) ──────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdminJWT(authService, log))
	{
		admin.GET("/me", handlers.Auth.AdminMe)
		admin.POST("/logout", handlers.Auth.Logout)
		admin.GET("/system", handlers.System.Stats)

		admin.GET("/exams", handlers.AdminExam.List)
		admin.POST("/exams", handlers.AdminExam.Create)
		admin.GET("/exams/:id", handlers.AdminExam.Get)
		admin.DELETE("/exams/:id", handlers.AdminExam.Delete)
		admin.GET("/exams/:id/results", handlers.AdminExam.Results)
		admin.GET("/exams/:id/results/:userId", handlers.AdminExam.UserResult)

		admin.GET("/users", handlers.AdminUser.List)
		admin.POST("/users", handlers.AdminUser.Create)
		admin.POST("/users/bulk", handlers.AdminUser.BulkCreate)
	}

	// ─── 5. Admin WebSocket (token in query) ───────────────────────────
	ws := router.Group("/ws/admin")
	ws.Use(middleware.RequireAdminWSAuth(authService, log))
	{
		ws.GET("/exams/:id/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
