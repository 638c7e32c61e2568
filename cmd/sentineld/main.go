package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/sentineld/sentinel/internal/alert"
	"github.com/sentineld/sentinel/internal/builtin"
	"github.com/sentineld/sentinel/internal/config"
	"github.com/sentineld/sentinel/internal/httpapi"
	"github.com/sentineld/sentinel/internal/lifecycle"
	"github.com/sentineld/sentinel/internal/logger"
	"github.com/sentineld/sentinel/internal/plugin"
	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/sentineld/sentinel/internal/source"
	"github.com/sentineld/sentinel/internal/storage/db"
	"github.com/sentineld/sentinel/internal/storage/repository"
	"github.com/sentineld/sentinel/internal/subscriber"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	version    = "0.1.0"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger("sentineld")
	log.Info("starting sentineld", zap.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := lifecycle.New(log)
	shutdown := lifecycle.NewShutdown(log)

	registry := plugin.New()

	var (
		database   *db.DB
		vsRepo     *repository.VideoSourceRepository
		subRepo    *repository.SubscriberRepository
		alertRepo  *repository.AlertRepository
		alerts     *alert.Manager
		redisFeed  *alert.RedisFeed
		registrar  *subscriber.Registrar
		pool       *reactive.WorkerPool
		subManager *subscriber.Manager
		srcManager *source.Manager
	)

	orch.Add("plugin-registry", func(ctx context.Context) error {
		registry.SetWhitelist(cfg.PluginWhitelist)
		builtin.Register(registry, log)
		registry.Reload()
		return nil
	})

	orch.Add("database", func(ctx context.Context) error {
		d, err := db.New(cfg.DBURL, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := d.RunMigrations(ctx, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		database = d
		shutdown.Defer("database", func(ctx context.Context) error { return d.Close() })
		return nil
	})

	orch.Add("repositories", func(ctx context.Context) error {
		vsRepo = repository.NewVideoSourceRepository(database)
		subRepo = repository.NewSubscriberRepository(database)
		alertRepo = repository.NewAlertRepository(database)
		return nil
	})

	orch.Add("alert-manager", func(ctx context.Context) error {
		alerts = alert.NewManager(alertRepo, log)
		shutdown.Defer("alert-manager", func(ctx context.Context) error {
			alerts.Close(ctx)
			return nil
		})

		if cfg.Redis.Enabled {
			feed, err := alert.NewRedisFeed(ctx, alert.RedisFeedConfig{
				Addr:       cfg.Redis.Addr,
				Password:   cfg.Redis.Password,
				DB:         cfg.Redis.DB,
				StreamName: cfg.Redis.StreamName,
				MaxLen:     10_000,
			}, log)
			if err != nil {
				log.Warn("redis alert feed unavailable, continuing without it", zap.Error(err))
			} else {
				redisFeed = feed
				shutdown.Defer("redis-feed", func(ctx context.Context) error { return redisFeed.Close() })
			}
		}
		return nil
	})

	orch.Add("subscription-graph", func(ctx context.Context) error {
		registrar = subscriber.NewRegistrar(log)
		if err := registrar.AddSubscriber("alert-manager", alerts); err != nil {
			return fmt.Errorf("register alert manager subscriber: %w", err)
		}
		if redisFeed != nil {
			if err := registrar.AddSubscriber("redis-feed", redisFeed); err != nil {
				return fmt.Errorf("register redis feed subscriber: %w", err)
			}
		}

		pool = reactive.NewWorkerPool(cfg.Pipeline.WorkerPoolSize)

		subManager = subscriber.NewManager(subRepo, registry, registrar, pool, log)
		if err := subManager.LoadPersisted(ctx); err != nil {
			return fmt.Errorf("load persisted subscribers: %w", err)
		}
		return nil
	})

	orch.Add("video-sources", func(ctx context.Context) error {
		srcManager = source.NewManager(vsRepo, registry, registrar, pool, log, cfg.Pipeline.AlertBufferSize, alerts)
		if err := srcManager.LoadPersisted(ctx); err != nil {
			return fmt.Errorf("load persisted video sources: %w", err)
		}
		return nil
	})

	var httpServer *http.Server
	orch.Add("http-server", func(ctx context.Context) error {
		router := httpapi.NewRouter(&httpapi.Dependencies{
			Config: cfg,
			DB:     database.DB,
			Alerts: alerts,
			Logger: log,
		})

		httpServer = &http.Server{
			Addr:         cfg.Server.GetServerAddr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		go func() {
			log.Info("http server starting", zap.String("address", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server failed", zap.Error(err))
			}
		}()

		shutdown.Defer("http-server", func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		return nil
	})

	if err := orch.Run(ctx); err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	log.Info("sentineld ready",
		zap.Int("subscribers", len(subManager.List())),
		zap.Int("video_sources", len(srcManager.List())),
	)
	lifecycle.WaitForSignal(ctx)

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	shutdown.Run(shutdownCtx)

	log.Info("sentineld stopped")
}
