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
	"luxauction-api/internal/core/cache"
	"luxauction-api/internal/core/config"
	"luxauction-api/internal/core/database"
	"luxauction-api/internal/core/logger"
	"luxauction-api/internal/core/media"
	"luxauction-api/internal/core/server"
	"luxauction-api/internal/feature/listing"
	"luxauction-api/internal/repo"
	"luxauction-api/internal/service"
	"luxauction-api/internal/transport/http/handler"
	mdw "luxauction-api/internal/transport/http/middleware"
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
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	store := mustOpenStore(cfg, log)
	if err := store.Prepare(context.Background()); err != nil {
		// uploads fail per request until the backend is reachable
		log.Warn("media store not ready", zap.Error(err))
	}

	var featured cache.Store = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		defer rc.Close()
		featured = rc
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	rules := listing.Rules{
		Durations:     cfg.Listing.Durations,
		MaxImages:     cfg.Listing.MaxImages,
		MaxImageBytes: cfg.Media.MaxFileBytes(),
		AllowedExt:    cfg.Media.AllowedExt,
	}
	listings := service.NewListingService(
		repo.NewListingRepo(db), store, listing.NewValidator(rules), log,
		service.WithFeaturedCache(featured, cfg.Redis.FeaturedTTL()),
		service.WithFeaturedBounds(cfg.Listing.FeaturedDefault, cfg.Listing.FeaturedMax),
	)
	users := service.NewAuthService(repo.NewUserRepo(db), jwter, log)

	authn := mdw.AuthJWT(jwter, "")
	mods := router.NewRegistry(
		handler.NewAuthHandler(users, authn, log),
		handler.NewListingHandler(listings, authn, log),
	)

	r := router.NewAPIEngine(log, router.Options{
		CORSOrigins:    cfg.App.HTTP.CORSOrigins,
		HandlerTimeout: time.Duration(cfg.App.HTTP.HandlerTimeoutSec) * time.Second,
		// room for a full batch of images plus the text fields
		MaxBodyBytes: int64(cfg.Listing.MaxImages)*cfg.Media.MaxFileBytes() + 1<<20,
	}, func() error { return database.Ping(db) }, handler.NewMediaHandler(store, log), mods)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("listing api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
		zap.String("media", cfg.Media.Driver),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listing api start FAILED", zap.Error(err))
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
	log.Info("listing api stopped gracefully")
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
