package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yingshengwanyue/zhouzhou/internal/config"
	"github.com/yingshengwanyue/zhouzhou/internal/handler"
	"github.com/yingshengwanyue/zhouzhou/internal/middleware"
	"github.com/yingshengwanyue/zhouzhou/internal/repository"
	"github.com/yingshengwanyue/zhouzhou/internal/service"
	"github.com/yingshengwanyue/zhouzhou/internal/session"
	"github.com/yingshengwanyue/zhouzhou/internal/upload"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if logLevel, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(logLevel)
	}

	// Initialize database
	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := repository.Migrate(db, cfg.Database.Driver); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db, cfg.Database.Driver)
	svc := service.NewService(repo, logger)

	// Provision the default account on first start
	if err := svc.EnsureDefaultUser(context.Background(), cfg.Auth.DefaultUsername, cfg.Auth.DefaultPassword); err != nil {
		logger.Fatalf("Failed to provision default user: %v", err)
	}

	// Session store
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		sessions, err = session.NewRedisStore(context.Background(), cfg.Session.RedisAddr, cfg.Session.TTL, cfg.Session.Sliding)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
	default:
		sessions = session.NewMemoryStore(cfg.Session.TTL, cfg.Session.Sliding)
	}
	defer sessions.Close()

	saver := upload.NewSaver(cfg.Upload.Dir, cfg.Upload.PublicPrefix, cfg.Upload.MaxFiles, cfg.Upload.MaxFileSize)
	h := handler.NewHandler(svc, sessions, saver, logger, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Sliding, cfg.Web.StaticDir)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	gate := middleware.SessionGate(sessions, cfg.Session.CookieName, logger)
	handler.RegisterRoutes(r, h, gate, cfg.Upload.Dir)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting server on %s", server.Addr)
		logger.Infof("Default username: %s", cfg.Auth.DefaultUsername)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Shut down cleanly on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
