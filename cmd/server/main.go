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

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/playmatatu/pocketpool/internal/api"
	"github.com/playmatatu/pocketpool/internal/auth"
	"github.com/playmatatu/pocketpool/internal/config"
	"github.com/playmatatu/pocketpool/internal/database"
	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/history"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/logging"
	"github.com/playmatatu/pocketpool/internal/middleware"
	"github.com/playmatatu/pocketpool/internal/migrations"
	"github.com/playmatatu/pocketpool/internal/redis"
	"github.com/playmatatu/pocketpool/internal/shot"
	"github.com/playmatatu/pocketpool/internal/ws"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := level.Load(cfg.SettingsPath)
	if err != nil {
		return err
	}
	log.Info("settings loaded", zap.Int("levels", len(settings.Levels)), zap.Int("balls", len(settings.Balls)))

	controller, err := shot.ParseControllerType(cfg.DefaultController)
	if err != nil {
		return fmt.Errorf("DEFAULT_CONTROLLER: %w", err)
	}

	// Database is optional: without it match history is disabled.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := migrations.Run(cfg.DatabaseURL, cfg.MigrationsDir, log); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
	} else {
		log.Warn("DATABASE_URL not set; match history disabled")
	}
	repo := history.NewRepository(db, log)

	// Redis is optional: without it snapshots are not persisted and events
	// stay on this instance.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer rdb.Close()
	} else {
		log.Warn("REDIS_URL not set; snapshot cache and event relay disabled")
	}

	hub := ws.NewHub(log)
	outbox := game.Fanout{hub}
	var publisher *redis.Publisher
	if rdb != nil {
		publisher = redis.NewPublisher(rdb, log)
		outbox = append(outbox, publisher)
	}

	var recorder game.Recorder
	if repo.Available() {
		recorder = repo
	}
	manager := game.NewManager(game.ManagerConfig{
		Settings: settings,
		Options: game.Options{
			PhysicsHz:           cfg.PhysicsHz,
			ForceMultiplier:     cfg.ForceMultiplier,
			PredictionSteps:     cfg.PredictionSteps,
			StationaryThreshold: cfg.StationaryThreshold,
			Controller:          controller,
		},
		Outbox:      outbox,
		Redis:       rdb,
		Recorder:    recorder,
		IdleTimeout: time.Duration(cfg.SessionIdleMinutes) * time.Minute,
		Logger:      log,
	})
	signer := auth.NewSigner(cfg.JWTSecret, time.Duration(cfg.SessionTokenTTLMin)*time.Minute)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	wsHandler := ws.NewHandler(hub, manager, signer, func(r *http.Request) bool {
		return middleware.OriginAllowed(cfg, r.Header.Get("Origin"))
	}, rdb != nil, log)
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Manager: manager,
		Signer:  signer,
		History: repo,
		WS:      wsHandler,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		manager.StartExpiryChecker(gctx)
		return nil
	})
	if publisher != nil {
		g.Go(func() error {
			publisher.Run(gctx)
			return nil
		})
		g.Go(func() error {
			redis.Subscribe(gctx, rdb, publisher.Origin(), hub, log)
			return nil
		})
	}
	g.Go(func() error {
		log.Info("starting pocketpool server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		manager.Shutdown()
		return err
	})

	return g.Wait()
}
