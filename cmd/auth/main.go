package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgresRepo "github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/db/postgres"
	myRedisRepo "github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/db/redis"
	httpadapter "github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/cleanup"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/password"
	appsvc "github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/claim"
	repo "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/server"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/workerpool"
	"golang.org/x/sync/errgroup"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		lg.Must("").Warn("failed to read .env", zap.Error(err))
	}

	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB, zapLog); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	pool, err := workerpool.New(workerpool.Config{
		Name:       "password",
		Workers:    cfg.HashWorkers,
		Queue:      cfg.HashQueueSize,
		Registerer: prometheus.DefaultRegisterer,
	}, zapLog)
	if err != nil {
		zapLog.Fatal("failed to start hash workers", zap.Error(err))
	}
	crypto := password.New(pool, password.WithPepper(cfg.PasswordPepper))

	codec, err := claim.NewCodec(claim.Config{
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	probes := map[string]server.Probe{"postgres": sqlDB.PingContext}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	var (
		tokenRepo repo.RefreshTokenRepo
		sweeper   cleanup.ExpiredTokenDeleter
	)
	switch cfg.RefreshStore {
	case config.RefreshStoreRedis:
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		probes["redis"] = func(ctx context.Context) error { return redisCli.Ping(ctx).Err() }
		tokenRepo = myRedisRepo.NewRedisTokenRepo(redisCli, userRepo)
	default:
		pgTokens := myPostgresRepo.NewPostgresTokenRepo(db)
		tokenRepo, sweeper = pgTokens, pgTokens
	}

	svc := appsvc.New(userRepo, tokenRepo, codec, crypto, validator.New(), zapLog)

	gin.SetMode(gin.ReleaseMode)
	router := httpadapter.NewRouter(httpadapter.NewHandler(svc, codec, zapLog), httpadapter.RouterConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
		Gatherer:         prometheus.DefaultGatherer,
	}, zapLog)
	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.StartGRPCServer(ctx, server.GRPCConfig{
			Address: cfg.GRPCAddress,
			Probes:  probes,
		}, zapLog)
	})

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zapLog.Info("shutdown signal received")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShutdown)
	})

	if sweeper != nil {
		g.Go(func() error {
			return cleanup.Run(ctx, sweeper, cfg.CleanupInterval, zapLog)
		})
	}

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}

	ctxPool, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pool.Close(ctxPool); err != nil {
		zapLog.Error("hash workers did not stop", zap.Error(err))
	}
}
