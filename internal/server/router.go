// Package server wires stores, services and handlers into a gin engine.
package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"todo-manager/internal/config"
	"todo-manager/internal/database"
	"todo-manager/internal/handlers"
	"todo-manager/internal/middleware"
	"todo-manager/internal/monitoring"
	"todo-manager/internal/repositories"
	"todo-manager/internal/services"
	"todo-manager/internal/session"
)

// Dependencies are opened by the caller, which also closes them.
type Dependencies struct {
	Config   *config.Config
	Logger   *log.Logger
	Pool     *database.DatabasePool
	Sessions session.Store
	// Now overrides the clock of repositories and sessions. Tests only.
	Now func() time.Time
}

type statsReporter interface {
	Stats() map[string]interface{}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{"Location"}
	corsCfg.MaxAge = 12 * time.Hour
	return corsCfg
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	users := repositories.NewUserRepository(deps.Pool.DB)
	taskRepo := repositories.NewTaskRepository(deps.Pool.DB)
	sessionService := services.NewSessionService(deps.Sessions, users, services.SessionConfig{
		Secret: cfg.Auth.SessionSecret,
		TTL:    cfg.Auth.SessionTTL,
	})
	if deps.Now != nil {
		taskRepo.WithClock(deps.Now)
		sessionService.WithClock(deps.Now)
	}
	authService := services.NewAuthService(users, cfg.Auth.BCryptCost)
	taskService := services.NewTaskService(taskRepo)

	monitor := monitoring.NewMonitor()
	monitor.RegisterHealthCheck("database", deps.Pool.Health)
	monitor.RegisterHealthCheck("sessions", deps.Sessions.Health)
	monitor.RegisterStats("database", deps.Pool.Stats)
	if reporter, ok := deps.Sessions.(statsReporter); ok {
		monitor.RegisterStats("sessions", reporter.Stats)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLogger(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(monitor.Middleware())
	router.Use(cors.New(corsConfig(cfg)))

	router.GET("/health", monitor.HealthHandler())
	router.GET("/health/live", monitor.LivenessHandler())
	router.GET("/health/ready", monitor.ReadinessHandler())
	router.GET("/metrics", monitor.MetricsHandler())

	authHandler := handlers.NewAuthHandler(authService, sessionService, logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	app := router.Group("", middleware.LoadSession(sessionService, logger))

	anonymous := app.Group("", middleware.RedirectIfAuthenticated("/tasks"))
	anonymous.GET("/", authHandler.Home)
	anonymous.POST("/register", authHandler.Register)
	anonymous.POST("/login", authHandler.Login)

	app.POST("/logout", authHandler.Logout)

	tasks := app.Group("/tasks", middleware.RequireSession())
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.EditTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)
	tasks.POST("/:id/toggle", taskHandler.ToggleTask)

	return router
}
