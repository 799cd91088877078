package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/aniarc/internal/backup"
	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/config"
	"github.com/MrSnakeDoc/aniarc/internal/feed"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/lookup"
	"github.com/MrSnakeDoc/aniarc/internal/redis"
	"github.com/MrSnakeDoc/aniarc/internal/scheduler"
	"github.com/MrSnakeDoc/aniarc/internal/store"
	badgerstore "github.com/MrSnakeDoc/aniarc/internal/store/badger"
	"github.com/MrSnakeDoc/aniarc/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/aniarc/internal/store/redis"
	"github.com/MrSnakeDoc/aniarc/internal/userstate"
	"github.com/MrSnakeDoc/aniarc/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	users      *userstate.Store
	feed       *feed.Controller
	refresher  *scheduler.FeedRefresher
	backupJob  *scheduler.BackupJob
	storeLabel string
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the user state backend early - fail fast if unavailable
	backend, err := openBackend(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreDriver, err)
		os.Exit(1)
	}

	users, err := userstate.Open(context.Background(), backend, loggerClient.Named("userstate"))
	if err != nil {
		loggerClient.Errorf("Failed to load user state: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("user state initialized",
		logger.String("driver", cfg.StoreDriver))

	if cfg.ImportFile != "" {
		importSnapshot(cfg.ImportFile, users, loggerClient)
	}

	catalogClient := catalog.New(catalog.Options{
		BaseURL:     cfg.CatalogURL,
		UserAgent:   cfg.CatalogUserAgent,
		MinInterval: cfg.CatalogMinInterval,
		PageLimit:   cfg.CatalogPageLimit,
		Timeout:     cfg.CatalogTimeout,
	}, loggerClient.Named("catalog"))

	lookupLog := loggerClient.Named("lookup")
	searcher := lookup.NewBreakerSearcher(
		lookup.NewClient(cfg.LookupURL, cfg.LookupTimeout, lookupLog),
		lookup.BreakerOptions{
			FailureThreshold: uint32(max(cfg.BreakerFailures, 1)),
			OpenTimeout:      cfg.BreakerOpenTimeout,
		},
		lookupLog,
	)
	resolver := lookup.NewResolver(searcher, cfg.LaunchScheme, lookupLog)

	mode, err := feed.ParseMode(cfg.FeedMode)
	if err != nil {
		loggerClient.Warn("unknown feed mode, falling back to seasonal",
			logger.String("mode", cfg.FeedMode))
		mode = feed.ModeSeasonal
	}
	feedController := feed.New(catalogClient, users, resolver, feed.Options{
		Mode:     mode,
		Debounce: cfg.SearchDebounce,
	}, loggerClient.Named("feed"))

	// Create manual refresh trigger channel
	refreshTrigger := make(chan struct{}, 1)

	refresher := scheduler.NewFeedRefresher(
		feedController,
		loggerClient.Named("refresher"),
		cfg.RefreshInterval,
		refreshTrigger,
	)

	// Initialize backup job (if a schedule is configured)
	var backupJob *scheduler.BackupJob
	if cfg.BackupSchedule != "" {
		format, err := backup.ParseFormat(cfg.BackupFormat)
		if err != nil {
			loggerClient.Errorf("Invalid backup format: %v", err)
			os.Exit(1)
		}
		backupJob, err = scheduler.NewBackupJob(users, scheduler.BackupOptions{
			Schedule: cfg.BackupSchedule,
			Dir:      cfg.BackupDir,
			Format:   format,
			Keep:     cfg.BackupKeep,
		}, loggerClient.Named("backup"))
		if err != nil {
			loggerClient.Errorf("Failed to configure backups: %v", err)
			os.Exit(1)
		}
	} else {
		loggerClient.Info("backup schedule not configured, scheduled backups disabled")
	}

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		StoreDriver:    cfg.StoreDriver,
		Feed:           feedController,
		UserState:      users,
		RefreshTrigger: refreshTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     server,
		users:      users,
		feed:       feedController,
		refresher:  refresher,
		backupJob:  backupJob,
		storeLabel: cfg.StoreDriver,
	}
}

// openBackend opens the backend selected by cfg.StoreDriver.
func openBackend(cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("memory store selected, user state is lost on restart")
		return memory.New(), nil

	case config.DriverRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log.Named("redis"))
		if err != nil {
			return nil, err
		}
		log.Info("Redis initialized successfully")
		return redisstore.NewStore(client), nil

	default:
		log.Info("opening badger store",
			logger.String("path", cfg.BadgerPath))
		return badgerstore.Open(badgerstore.Options{Path: cfg.BadgerPath}, log)
	}
}

// importSnapshot merges a backup file into users. Failures are logged and
// startup continues with the current state.
func importSnapshot(path string, users *userstate.Store, log logger.Logger) {
	snap, err := backup.Load(path)
	if err != nil {
		log.Warn("failed to read import file, skipping",
			logger.String("file", path),
			logger.Error(err))
		return
	}
	if err := users.ImportAll(context.Background(), snap); err != nil {
		log.Warn("failed to persist imported user state",
			logger.String("file", path),
			logger.Error(err))
		return
	}
	log.Info("user state imported",
		logger.String("file", path),
		logger.Int("favorites", len(snap.Favorites)),
		logger.Int("ratings", len(snap.Ratings)),
		logger.Int("progress", len(snap.Progress)))
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting AniArc v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start feed refresher (initial load, then periodic refresh)
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed refresher: %w", err)
	}
	a.logger.Info("feed refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	if a.backupJob != nil {
		a.backupJob.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.refresher.Stop()

	if a.backupJob != nil {
		a.backupJob.Stop()
	}

	// Cancels in-flight catalog requests and pending searches
	a.feed.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.users.Close(); err != nil {
		a.logger.Warnf("failed to close %s store: %v", a.storeLabel, err)
	} else {
		a.logger.Infof("✅ %s store closed cleanly", a.storeLabel)
	}

	a.logger.Info("✅ AniArc stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
