package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"rentalhub/common/database"
	commonredis "rentalhub/common/redis"
	"rentalhub/internal/auth"
	"rentalhub/internal/config"
	"rentalhub/internal/events"
	httpapi "rentalhub/internal/http"
	"rentalhub/internal/repository"
	"rentalhub/internal/service"
	"rentalhub/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var runMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (JSON API + rendered site)",
		RunE: func(*cobra.Command, []string) error {
			return serve(cfg, runMigrations)
		},
	}
	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending migrations before serving")
	cmd.Flags().StringVar(&cfg.HTTP.Addr, "addr", cfg.HTTP.Addr, "listen address")
	return cmd
}

type repositories struct {
	users        repository.UsersRepository
	properties   repository.PropertiesRepository
	applications repository.ApplicationsRepository
	payments     repository.PaymentsRepository
	reviews      repository.ReviewsRepository
}

func postgresRepositories(db *sqlx.DB) repositories {
	return repositories{
		users:        repository.NewPostgresUsersRepository(db),
		properties:   repository.NewPostgresPropertiesRepository(db),
		applications: repository.NewPostgresApplicationsRepository(db),
		payments:     repository.NewPostgresPaymentsRepository(db),
		reviews:      repository.NewPostgresReviewsRepository(db),
	}
}

func memoryRepositories() repositories {
	m := repository.NewMemoryStore()
	return repositories{users: m, properties: m, applications: m, payments: m, reviews: m}
}

func serve(cfg *config.Config, runMigrations bool) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Database: fall back to in-memory repositories when disabled or unreachable (local dev).
	var db *sqlx.DB
	repos := memoryRepositories()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			logger.Info("DB enabled for rentalhub")
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}
	if db != nil {
		if runMigrations {
			if err := migrateUp(cfg, logger); err != nil {
				_ = db.Close()
				return err
			}
		}
		repos = postgresRepositories(db)
	}

	// Redis: sessions, token deny-list, event stream.
	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	var publisher events.Publisher = events.NewNopPublisher(logger)
	if cfg.RedisEnabled {
		if c, err := commonredis.Connect(context.Background(), &cfg.Redis); err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			publisher = events.NewStreamPublisher(c, cfg.EventsStream, logger)
			logger.Info("Redis enabled for rentalhub", zap.String("addr", cfg.Redis.Addr))
		} else {
			logger.Warn("Redis enabled but connection failed, using in-memory sessions", zap.Error(err))
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	sessions := store.NewSessionStore(kv, cfg.Session.TTL)
	svc := httpapi.Services{
		Auth:         service.NewAuthService(repos.users, tokens, store.NewTokenDenyList(kv), logger),
		Properties:   service.NewPropertyService(repos.properties, logger),
		Applications: service.NewApplicationService(repos.properties, repos.applications, publisher, logger),
		Payments:     service.NewPaymentService(repos.applications, repos.payments, publisher, logger),
		Reviews:      service.NewReviewService(repos.properties, repos.reviews, logger),
	}

	web, err := httpapi.NewWeb(svc, sessions, httpapi.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure}, cfg.PageSize, logger)
	if err != nil {
		return err
	}
	var dbPing httpapi.Pinger
	if db != nil {
		dbPing = db
	}

	router := httpapi.NewRouter(logger)
	router.RegisterAPIRoutes(httpapi.NewAPI(svc, httpapi.NewAuthenticator(svc.Auth, sessions, cfg.Session.CookieName), cfg.PageSize, logger))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(dbPing, httpapi.PingFunc(kv.Ping), logger))
	router.RegisterWebRoutes(web)

	srv := service.NewServer(cfg.HTTP.Addr, httpapi.WithRequestLogging(router, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	serveErr := srv.Run(ctx)

	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = database.Close(db)
	return serveErr
}
