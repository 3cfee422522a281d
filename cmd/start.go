package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presence-sync/core/config"
	"presence-sync/core/database"
	"presence-sync/core/journal"
	"presence-sync/core/loader"
	"presence-sync/core/logger"
	"presence-sync/core/metrics"
	"presence-sync/core/middleware/auth"
	"presence-sync/core/middleware/rayid"
	"presence-sync/core/storage"
	"presence-sync/core/trace"
	"presence-sync/feature/roster"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the roster server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// The journal is optional: without a database the roster still works
		var recorder *journal.Recorder
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, journal disabled", zap.Error(err))
		} else {
			recorder = journal.NewRecorder(db, logg.Named("journal"))
			if err := prepareJournal(context.Background(), recorder, cfg.Database.AutoMigrate); err != nil {
				logg.Warn("Journal schema not usable, journal disabled", zap.Error(err))
				recorder = nil
			} else {
				logg.Info("Connected to journal database", zap.String("driver", cfg.Database.Driver))
			}
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		collector := metrics.New()

		// The minio client connects lazily, so a missing storage only fails trace replays
		var traces *trace.Cache
		if store, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Trace storage unavailable", zap.Error(err))
		} else {
			ttl := time.Duration(cfg.Storage.CacheTTLSeconds) * time.Second
			traces = trace.NewCache(store, cfg.Storage.Bucket, ttl)
		}

		mgr := loader.NewManager()
		mgr.Register(roster.NewFeature(cfg.Presence, collector, recorder, traces, logg.Named("roster")))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Metrics stay public so scrapers need no API key
		if cfg.Metrics.Enabled {
			app.Get(cfg.Metrics.Path, collector.Handler())
		}

		app.Use(auth.New(auth.Config{
			ApiKey: cfg.Server.ApiKey,
			Skip: func(c *fiber.Ctx) bool {
				return cfg.Metrics.Enabled && c.Path() == cfg.Metrics.Path
			},
		}))
		if !cfg.Server.AuthEnabled() {
			logg.Warn("No API key configured, roster endpoints are unauthenticated")
		}

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

// prepareJournal migrates the journal table, or only verifies it when migration is off.
func prepareJournal(ctx context.Context, recorder *journal.Recorder, autoMigrate bool) error {
	if autoMigrate {
		return recorder.Migrate(ctx)
	}
	return recorder.Verify(ctx)
}

func init() {
	RootCmd.AddCommand(startCmd)
}
