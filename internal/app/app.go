package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/chat"
	"github.com/yungbote/skillsync-backend/internal/clients/gemini"
	"github.com/yungbote/skillsync-backend/internal/clients/supabase"
	"github.com/yungbote/skillsync-backend/internal/handlers"
	"github.com/yungbote/skillsync-backend/internal/middleware"
	"github.com/yungbote/skillsync-backend/internal/observability"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
	"github.com/yungbote/skillsync-backend/internal/server"
	"github.com/yungbote/skillsync-backend/internal/services"
	"github.com/yungbote/skillsync-backend/internal/session"
	"github.com/yungbote/skillsync-backend/internal/snapshot"
	"github.com/yungbote/skillsync-backend/internal/social"
)

type App struct {
	Log     *logger.Logger
	Cfg     Config
	Router  *gin.Engine
	Runtime *session.Runtime
	Data    *social.Reconciler
	Chat    *chat.Poller
	Flow    *services.AuthFlow

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	rootCtx, cancel := context.WithCancel(context.Background())

	otelShutdown := observability.InitOTel(rootCtx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	store, err := supabase.NewClient(supabase.Config{
		URL:         cfg.Supabase.URL,
		AnonKey:     cfg.Supabase.AnonKey,
		AccessToken: cfg.Supabase.AccessToken,
		Timeout:     cfg.RequestTimeout,
	}, log)
	if err != nil {
		cancel()
		log.Sync()
		return nil, fmt.Errorf("init supabase client: %w", err)
	}

	ai, err := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
	}, log)
	if err != nil {
		cancel()
		log.Sync()
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	var persist social.Persister
	snapStore, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		log.Warn("snapshot store unavailable, warm start disabled", "path", cfg.SnapshotPath, "error", err)
	} else {
		persist = snapStore
	}

	cache := social.NewCache()
	if snapStore != nil {
		warmStart(log, snapStore, cache)
	}

	data := social.NewReconciler(log, store, cache, persist)
	poller := chat.NewPoller(rootCtx, log, store, nil)
	runtime := session.NewRuntime(log, store, ai, data, poller, nil)
	flow := services.NewAuthFlow(log, store)

	avatar, err := services.NewAvatarService(log)
	if err != nil {
		log.Warn("avatar rendering unavailable", "error", err)
		avatar = nil
	}

	authMW := middleware.NewAuthMiddleware(log)
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthMiddleware: authMW,
		AuthHandler:    handlers.NewAuthHandler(log, flow, runtime),
		StateHandler:   handlers.NewStateHandler(runtime),
		SessionHandler: handlers.NewSessionHandler(runtime),
		FeedHandler:    handlers.NewFeedHandler(data),
		UserHandler:    handlers.NewUserHandler(data, avatar),
		ChatHandler:    handlers.NewChatHandler(poller),
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		Runtime:      runtime,
		Data:         data,
		Chat:         poller,
		Flow:         flow,
		otelShutdown: otelShutdown,
		cancel:       cancel,
	}, nil
}

// Start launches the event loop and attempts to recover a persisted session
// so a restart lands the user back on their dashboard.
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	prev := a.cancel
	a.cancel = func() {
		cancel()
		if prev != nil {
			prev()
		}
	}
	a.Runtime.Start(ctx)

	identity, _, err := a.Flow.Restore(ctx)
	if err != nil {
		a.Log.Warn("session restore failed", "error", err)
		a.Runtime.Dispatch(session.RestoreFailed{Warning: "Failed to initialize user profile."})
		return
	}
	if identity == nil {
		a.Log.Info("no persisted session, starting signed out")
		return
	}
	a.Log.Info("restored session", "user_id", identity.ID)
	a.Runtime.Dispatch(session.SessionRestored{UserID: identity.ID})
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	if addr == "" {
		addr = a.Cfg.ListenAddr
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Runtime.Stop()
	a.Chat.Close()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.RequestTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// warmStart preloads the cache from the last persisted collections. Stale is
// fine; the post-login refresh replaces it.
func warmStart(log *logger.Logger, snapStore *snapshot.Store, cache *social.Cache) {
	users, err := snapStore.LoadUsers()
	if err != nil {
		log.Warn("user snapshot load failed", "error", err)
	} else if len(users) > 0 {
		cache.ReplaceUsers(users)
	}
	posts, err := snapStore.LoadPosts()
	if err != nil {
		log.Warn("post snapshot load failed", "error", err)
	} else if len(posts) > 0 {
		cache.ReplacePosts(posts)
	}
	log.Info("warm start from snapshot", "users", len(users), "posts", len(posts))
}
