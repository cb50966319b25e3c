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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"luxauction-api/internal/core/auth"
	"luxauction-api/internal/core/config"
	"luxauction-api/internal/core/database"
	"luxauction-api/internal/core/logger"
	"luxauction-api/internal/core/media"
	"luxauction-api/internal/core/server"
	"luxauction-api/internal/repo"
	"luxauction-api/internal/service"
	"luxauction-api/internal/transport/http/handler"
	"luxauction-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	store := mustOpenStore(cfg, log)
	sweeper := service.NewMediaSweeper(repo.NewListingRepo(db), store, cfg.Media.OrphanGrace(), log)
	adminH := handler.NewAdminHandler(service.NewUserService(repo.NewUserRepo(db)), sweeper)

	r := router.NewAdminEngine(log, router.Options{
		HandlerTimeout: time.Duration(cfg.App.HTTP.HandlerTimeoutSec) * time.Second,
	}, func() error { return database.Ping(db) }, jwter, router.NewRegistry(router.AdminActions{H: adminH, Log: log}))

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 60*time.Second, 60*time.Second)

	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("admin api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	return logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Service:     cfg.App.Name,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File.Enable,
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func mustOpenStore(cfg *config.Config, l *zap.Logger) media.Store {
	m := cfg.Media
	store, err := media.Open(media.Opts{
		Driver:    m.Driver,
		Root:      m.Root,
		Prefix:    m.PublicPrefix,
		Endpoint:  m.MinIO.Endpoint,
		AccessKey: m.MinIO.AccessKey,
		SecretKey: m.MinIO.SecretKey,
		Bucket:    m.MinIO.Bucket,
		Region:    m.MinIO.Region,
		UseSSL:    m.MinIO.UseSSL,
	}, l)
	if err != nil {
		l.Fatal("media store", zap.Error(err))
	}
	return store
}
