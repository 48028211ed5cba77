package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"placement-excluder/core/bus"
	"placement-excluder/core/config"
	"placement-excluder/core/database"
	"placement-excluder/core/logger"
	"placement-excluder/core/middleware"
	"placement-excluder/core/storage"
	"placement-excluder/core/tracking"
	"placement-excluder/core/warehouse"
	"placement-excluder/feature/ads"
	"placement-excluder/feature/enrich"
	"placement-excluder/feature/pipeline"
	"placement-excluder/feature/reconcile"
	"placement-excluder/feature/sheets"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the placement excluder service",
	Long:  `Starts the stage consumers and the HTTP server.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Tracking Database (Optional)
		var db *gorm.DB
		if cfg.Database.Enabled {
			if conn, err := database.Connect(cfg.Database); err != nil {
				logg.Warn("Optional tracking database connection failed", zap.Error(err))
			} else {
				db = conn
				logg.Info("Connected to tracking database")
			}
		}
		tracker, err := tracking.NewRecorder(db, logg)
		if err != nil {
			logg.Warn("Failed to migrate tracking ledger, continuing without it", zap.Error(err))
			tracker, _ = tracking.NewRecorder(nil, logg)
		}

		// 4. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 5. Connect Bus and Warehouse
		messageBus, err := bus.New(cfg.Bus, logg)
		if err != nil {
			logg.Fatal("Failed to connect to message bus", zap.Error(err))
		}
		defer messageBus.Close()

		wh, err := warehouse.Connect(cfg.Warehouse)
		if err != nil {
			logg.Fatal("Failed to connect to warehouse", zap.Error(err))
		}
		defer wh.Close()

		// 6. Wire the Pipeline
		var detector enrich.LanguageDetector
		if d := enrich.NewTranslateDetector(cfg.Enrich); d != nil {
			detector = d
		}
		adsClient := ads.NewClient(cfg.Ads)

		coordinator := pipeline.NewCoordinator(pipeline.Deps{
			Bus:       messageBus,
			Sheets:    sheets.NewObjectSource(store, cfg.Storage.Bucket),
			Warehouse: wh,
			Storage:   store,
			Bucket:    cfg.Storage.Bucket,
			Fetcher:   enrich.NewFetcher(enrich.NewYouTubeLister(cfg.Enrich), detector, cfg.Enrich, logg),
			Engine:    reconcile.NewEngine(wh, logg),
			Reporter:  adsClient,
			Mutator:   adsClient,
			Tracker:   tracker,
			Logger:    logg,
		})

		// 7. Start Stage Consumers
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stages := []pipeline.Stage{
			pipeline.StageAccounts,
			pipeline.StageReport,
			pipeline.StageEnrich,
			pipeline.StageExclude,
		}
		for _, stage := range stages {
			go func(stage pipeline.Stage) {
				err := messageBus.Subscribe(ctx, stage.Topic(), coordinator.Handler(stage))
				if err != nil && !errors.Is(err, context.Canceled) {
					logg.Error("Stage consumer stopped",
						zap.String("stage", string(stage)), zap.Error(err))
				}
			}(stage)
		}

		// 8. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// RayID must be first to trace everything
		app.Use(middleware.RayID())

		// Logging Middleware (Zap + RayID)
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

		// Auth (Protect API)
		app.Use(middleware.Auth(cfg.Server.ApiKey))

		pipeline.NewHandler(coordinator, messageBus, tracker, logg).RegisterRoutes(app)

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
