package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/skillsync-backend/internal/handlers"
	"github.com/yungbote/skillsync-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *handlers.AuthHandler
	StateHandler   *handlers.StateHandler
	SessionHandler *handlers.SessionHandler
	FeedHandler    *handlers.FeedHandler
	UserHandler    *handlers.UserHandler
	ChatHandler    *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/auth/signup", cfg.AuthHandler.SignUp)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/restore", cfg.AuthHandler.Restore)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	// State
	protected.GET("/state", cfg.StateHandler.GetState)
	protected.POST("/navigate", cfg.StateHandler.Navigate)
	// Session
	protected.POST("/session/start", cfg.SessionHandler.Start)
	protected.POST("/session/skills", cfg.SessionHandler.SubmitSkills)
	protected.POST("/session/confirm", cfg.SessionHandler.ConfirmMatch)
	protected.POST("/session/end", cfg.SessionHandler.End)
	protected.POST("/session/restart", cfg.SessionHandler.Restart)
	protected.POST("/session/coach/regenerate", cfg.SessionHandler.RegenerateCoach)
	protected.POST("/session/empathy", cfg.SessionHandler.RewriteEmpathy)
	// Feed
	protected.GET("/feed", cfg.FeedHandler.ListPosts)
	protected.POST("/posts", cfg.FeedHandler.CreatePost)
	protected.POST("/posts/:id/like", cfg.FeedHandler.ToggleLike)
	protected.POST("/posts/:id/comments", cfg.FeedHandler.AddComment)
	// Users
	protected.GET("/users", cfg.UserHandler.ListUsers)
	protected.POST("/users/:id/follow", cfg.UserHandler.ToggleFollow)
	protected.PATCH("/users/me", cfg.UserHandler.UpdateMe)
	protected.GET("/users/:id/avatar", cfg.UserHandler.Avatar)
	// Chat
	protected.GET("/chat/:partnerId", cfg.ChatHandler.OpenThread)
	protected.DELETE("/chat", cfg.ChatHandler.CloseThread)
	protected.POST("/chat/:partnerId/messages", cfg.ChatHandler.SendMessage)

	return router
}
