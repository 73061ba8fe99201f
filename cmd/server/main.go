package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/api"
	"github.com/vikasavnish/parentportal/internal/config"
	"github.com/vikasavnish/parentportal/internal/db"
	"github.com/vikasavnish/parentportal/internal/email"
	"github.com/vikasavnish/parentportal/internal/logger"
	"github.com/vikasavnish/parentportal/internal/storage"
	"github.com/vikasavnish/parentportal/internal/tasks"
	"github.com/vikasavnish/parentportal/internal/websocket"
)

const notificationQueueKey = "parentportal:notifications"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "parentportal")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database connection
	database, err := db.Connect(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	queue := notificationQueue(cfg, zlog)
	mailer := newMailer(cfg, zlog)

	photos, err := newPhotoStore(cfg)
	if err != nil {
		zlog.Fatal("failed to set up photo storage", zap.Error(err))
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(zlog.Named("ws"))
	go wsHub.Run()
	defer wsHub.Close()

	// Initialize background tasks
	dispatcher := tasks.NewNotificationDispatcher(queue, mailer, tasks.DispatcherConfig{
		PollInterval: cfg.Notify.PollInterval,
		MaxAttempts:  cfg.Notify.MaxAttempts,
		RetryBase:    cfg.Notify.RetryBase,
	}, zlog.Named("notify"))
	taskManager := tasks.NewManager(zlog)
	taskManager.RegisterTask(dispatcher)
	taskManager.StartAll()
	defer taskManager.StopAll()

	// Initialize router
	router := api.SetupRouter(database, wsHub, dispatcher, photos, cfg, zlog)

	// Set up CORS
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           corsMiddleware.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// notificationQueue prefers Redis so scheduled emails survive restarts.
func notificationQueue(cfg *config.Config, zlog *zap.Logger) tasks.Queue {
	if cfg.Redis.URL == "" {
		zlog.Warn("REDIS_URL not set, notifications are queued in memory")
		return tasks.NewMemoryQueue()
	}
	client, err := db.ConnectRedis(cfg.Redis)
	if err != nil {
		zlog.Warn("failed to connect to Redis, notifications are queued in memory", zap.Error(err))
		return tasks.NewMemoryQueue()
	}
	return tasks.NewRedisQueue(client, notificationQueueKey)
}

func newMailer(cfg *config.Config, zlog *zap.Logger) email.Mailer {
	postmark := email.NewPostmarkClient(cfg.Mail.PostmarkToken, cfg.Mail.From, cfg.Mail.PostmarkURL)
	if postmark.Configured() {
		return postmark
	}
	zlog.Warn("POSTMARK_SERVER_TOKEN not set, emails are logged instead of sent")
	return email.NewLogMailer(zlog.Named("mail"))
}

func newPhotoStore(cfg *config.Config) (storage.PhotoStore, error) {
	if cfg.Storage.Backend == "s3" {
		return storage.NewS3Store(cfg.Storage.S3), nil
	}
	return storage.NewLocalStore(cfg.Storage.UploadDir)
}
