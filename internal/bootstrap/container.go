package bootstrap

import (
	"context"
	"errors"

	"design-companion-be/internal/config"
	"design-companion-be/internal/controller"
	"design-companion-be/internal/handler"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/repository/contract"
	"design-companion-be/internal/repository/implementation"
	"design-companion-be/internal/repository/memory"
	"design-companion-be/internal/service"
	"design-companion-be/internal/websocket"
	consultEvents "design-companion-be/pkg/consult/events"
	"design-companion-be/pkg/consult/library"
	"design-companion-be/pkg/database"
	"design-companion-be/pkg/gemini"

	pktNats "design-companion-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

var errRedisUnavailable = errors.New("redis is not connected")

type Container struct {
	Logger logger.ILogger

	// Controllers
	SetupController        controller.ISetupController
	AuthController         controller.IAuthController
	ConsultationController controller.IConsultationController
	LibraryController      controller.ILibraryController
	UIController           controller.IUIController
	AdminController        controller.IAdminController

	// Background services, started by main
	ProgressService service.IProgressService
	ActivityService *service.ActivityService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub

	closers []func()
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Logger
	sysLogger := logger.NewZapLogger(logger.Config{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.FilePath,
		Console:    cfg.Log.Console,
		Production: cfg.IsProduction(),
	})
	c := &Container{Logger: sysLogger}

	// 2. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	rdb := newRedisClient(cfg.App.RedisURL, sysLogger)

	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()
	c.closers = append(c.closers, wsHub.Stop)

	// 3. Storage
	repo := c.newKVRepository(cfg, rdb, sysLogger)

	// 4. Event bus for upload progress
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	progressService := service.NewProgressService(pubSub, wsHub, sysLogger)

	// 5. Analysis service client
	apiKey := func() string { return cfg.Keys.GoogleGemini }
	geminiClient := gemini.NewClient(gemini.Config{
		BaseURL:           cfg.Ai.BaseURL,
		Model:             cfg.Ai.Model,
		SystemPrompt:      cfg.Ai.SystemPrompt,
		RequestTimeout:    cfg.Ai.RequestTimeout,
		PollInterval:      cfg.Library.PollInterval,
		MaxPollAttempts:   cfg.Library.MaxPollAttempts,
		MaxTokensPerChunk: cfg.Library.MaxTokensPerChunk,
		MaxOverlapTokens:  cfg.Library.MaxOverlapTokens,
	}, apiKey, sysLogger)

	// 6. Services
	var bus consultEvents.Bus
	if natsPub != nil {
		bus = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	eventPublisher := consultEvents.NewNatsPublisher(bus, sysLogger)

	workspaces := service.NewWorkspaceRegistry(repo, geminiClient, library.Options{
		StoreDisplayName:    cfg.Library.StoreDisplayName,
		MaxFileSizeBytes:    cfg.Library.MaxFileSizeBytes,
		ProgressClearDelay:  cfg.Library.ProgressClearDelay,
		RecommendedMaxBytes: cfg.Library.RecommendedMaxBytes,
		LargeLibraryBytes:   cfg.Library.LargeLibraryBytes,
	}, progressService, cfg.App.WorkspaceIdleTTL, sysLogger)

	tokens := serverutils.NewTokenManager(cfg.App.JwtSecret, cfg.App.TokenTTL)
	setupService := service.NewSetupService(apiKey, cfg.Ai.Model, cfg.Library.MaxFileSizeBytes)

	c.SetupController = controller.NewSetupController(setupService)
	c.AuthController = controller.NewAuthController(service.NewRoleService(workspaces, tokens, sysLogger), tokens)
	c.ConsultationController = controller.NewConsultationController(
		service.NewConsultationService(workspaces, geminiClient, eventPublisher, sysLogger),
		tokens,
		setupService.HasAPIKey,
	)
	c.LibraryController = controller.NewLibraryController(
		service.NewLibraryService(workspaces, eventPublisher, sysLogger),
		tokens,
		setupService.HasAPIKey,
	)
	c.UIController = controller.NewUIController(service.NewUIService(workspaces), tokens)
	c.AdminController = controller.NewAdminController(service.NewLogService(sysLogger), tokens)

	c.ProgressService = progressService
	c.ActivityService = service.NewActivityService(natsSub, wsHub, sysLogger)
	c.ProgressHandler = handler.NewProgressHandler(wsHub, tokens, sysLogger)
	c.WebSocketHub = wsHub

	if !setupService.HasAPIKey() {
		sysLogger.Warn("BOOTSTRAP", "GEMINI_API_KEY is not set; consultation and library routes will answer 412", nil)
	}
	return c
}

// Close releases background resources in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// newKVRepository picks the storage backend. Any failure falls back to the
// in-process cache so the service still starts.
func (c *Container) newKVRepository(cfg *config.Config, rdb *redis.Client, log logger.ILogger) contract.KVRepository {
	backend := cfg.Storage.Backend
	fallback := func(err error) contract.KVRepository {
		log.Warn("BOOTSTRAP", "Storage backend unavailable, using memory", map[string]interface{}{
			"backend": backend,
			"error":   err.Error(),
		})
		return memory.NewKVRepository()
	}

	switch backend {
	case "redis":
		if rdb == nil {
			return fallback(errRedisUnavailable)
		}
		return implementation.NewRedisKVRepository(rdb)

	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return fallback(err)
		}
		repo, err := implementation.NewGormKVRepository(db)
		if err != nil {
			return fallback(err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, func() { _ = sqlDB.Close() })
		}
		return repo

	case "sqlite":
		conn, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return fallback(err)
		}
		repo, err := implementation.NewSQLiteKVRepository(conn)
		if err != nil {
			_ = conn.Close()
			return fallback(err)
		}
		c.closers = append(c.closers, func() { _ = conn.Close() })
		return repo
	}

	log.Info("BOOTSTRAP", "Using in-memory storage", map[string]interface{}{"backend": backend})
	return memory.NewKVRepository()
}
