package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/geonseol-backend/config"
	"github.com/ikkim/geonseol-backend/internal/app/controller"
	"github.com/ikkim/geonseol-backend/internal/app/repository"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/db"
	"github.com/ikkim/geonseol-backend/internal/middleware"
	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/internal/router"
	"github.com/ikkim/geonseol-backend/internal/scheduler"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/storage"
	"github.com/ikkim/geonseol-backend/internal/websocket"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"github.com/ikkim/geonseol-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting GEONSEOL Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"backends":    cfg.Storage.Backends,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedAdmin(db.GetDB(), cfg.Security.AdminPassword); err != nil {
		logger.Warn("Failed to seed admin account", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis 는 선택 사항. 연결 실패 시 나머지 저장소로 동작
	var redisClient goredis.UniversalClient
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			redisClient = redis.GetClient()
			defer redis.Close()
		}
	}

	// Storage chain in configured priority order
	backends := buildBackends(cfg, redisClient)
	chain := storage.NewChain(backends...)
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 10*time.Second)
	available := chain.Probe(probeCtx)
	cancelProbe()
	if len(available) == 0 {
		logger.Fatal("No storage backend is available", errors.New("storage unavailable"), map[string]interface{}{
			"configured": cfg.Storage.Backends,
		})
	}

	// Security flags live in Redis when it is shared, otherwise in the chain
	var flags session.FlagStore = session.NewBackendFlagStore(chain)
	if redisClient != nil {
		flags = session.NewRedisFlagStore(redisClient)
	}

	publicKey, err := session.LoadPublicKey(cfg.Security.PublicKey, cfg.Security.PublicKeyPath)
	if err != nil {
		logger.Fatal("Failed to load security key verifier", err)
	}
	if publicKey == nil {
		logger.Warn("No security key public key configured, admin security keys will be rejected")
	}
	verifier := session.NewKeyVerifier(publicKey)

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	opts := dataset.Options{LegacyEmptyBackfill: cfg.Storage.LegacyEmptyBackfill}
	sessions := session.NewManager(func(sessionID string) *dataset.Workspace {
		ws := dataset.NewWorkspace(chain, opts)
		ws.OnPersisted(func(user string, ds namespace.Dataset) {
			hub.Publish(user, websocket.Event{
				Type:    websocket.EventDatasetChanged,
				Dataset: string(ds),
				Origin:  sessionID,
			})
		})
		return ws
	}, verifier, flags)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(accountRepo, sessions, hub, cfg.JWT.Secret, cfg.JWT.SessionExpiry)
	workspaceService := service.NewWorkspaceService()
	billingService := service.NewBillingService()
	backupService := service.NewBackupService(hub)
	spreadsheetService := service.NewSpreadsheetService()

	// 클라이언트가 포커스를 되찾으면 "revalidate" 메시지를 보낸다
	hub.OnRevalidate(func(sessionID string) {
		sess, err := sessions.Get(sessionID)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		authService.Revalidate(ctx, sess)
	})

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	datasetController := controller.NewDatasetController(workspaceService)
	billingController := controller.NewBillingController(billingService)
	backupController := controller.NewBackupController(backupService)
	spreadsheetController := controller.NewSpreadsheetController(spreadsheetService)
	wsController := controller.NewWSController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, sessions)

	// Setup router
	r := router.NewRouter(
		authController,
		datasetController,
		billingController,
		backupController,
		spreadsheetController,
		wsController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	securityScheduler := scheduler.NewSecurityScheduler(sessions, authService, cfg.Security.RevalidationSpec, cfg.Security.SessionIdleTimeout)
	if err := securityScheduler.Start(); err != nil {
		logger.Fatal("Failed to start security scheduler", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	securityScheduler.Stop()
	hub.Stop()
	// 남은 저장 작업을 모두 내보낸 뒤 종료
	sessions.Close()

	logger.Info("Server stopped successfully")
}

// buildBackends 설정 순서대로 저장소 백엔드 구성. 알 수 없는 이름은 무시
func buildBackends(cfg *config.Config, redisClient goredis.UniversalClient) []storage.Backend {
	var backends []storage.Backend
	for _, name := range cfg.Storage.Backends {
		switch name {
		case "file":
			backends = append(backends, storage.NewFileStore(cfg.Storage.DataDir))
		case "kv":
			backends = append(backends, storage.NewKVStore(db.GetDB()))
		case "redis":
			if redisClient == nil {
				logger.Warn("Redis backend configured but Redis is disabled or unreachable")
				continue
			}
			backends = append(backends, storage.NewRedisStore(redisClient))
		case "s3":
			if !cfg.S3.Enabled {
				logger.Warn("S3 backend configured but S3 is disabled")
				continue
			}
			client := storage.NewS3Client(context.Background(), cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
			backends = append(backends, storage.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix))
		case "memory":
			backends = append(backends, storage.NewMemoryStore())
		default:
			logger.Warn("Unknown storage backend", map[string]interface{}{
				"backend": name,
			})
		}
	}
	return backends
}
