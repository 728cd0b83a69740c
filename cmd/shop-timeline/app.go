package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/config"
	"github.com/belphemur/shop-timeline/internal/database"
	"github.com/belphemur/shop-timeline/internal/handlers"
	"github.com/belphemur/shop-timeline/internal/logging"
	"github.com/belphemur/shop-timeline/internal/sampledata"
	appSignals "github.com/belphemur/shop-timeline/internal/signals"
	"github.com/belphemur/shop-timeline/internal/timeline"
	"github.com/belphemur/shop-timeline/internal/tui"
	"github.com/belphemur/shop-timeline/internal/viewport"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// loadConfig reads the configuration named by --config and applies its log level
func loadConfig(c *cli.Context) (*config.Config, error) {
	logger := logging.GetLogger("main")
	configPath := c.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return nil, err
	}

	logging.SetLogLevel(cfg.Service.LogLevel)
	return cfg, nil
}

// openBoard opens the database, migrates it and loads the first page of rows.
// The returned close function releases the database.
func openBoard(ctx context.Context, cfg *config.Config) (*board.Board, func(), error) {
	logger := logging.GetLogger("main")

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.Service.StateFile), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.StateFile)).Msg("Failed to create data directory")
		return nil, nil, err
	}

	db, err := database.New(database.NewDefaultOptions(cfg.Service.StateFile))
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.StateFile).Msg("Database initialization failed")
		return nil, nil, wrappedErr
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close database")
		}
	}

	if err := db.MigrateDatabase(); err != nil {
		closeDB()
		wrappedErr := fmt.Errorf("failed to initialize database schema: %w", err)
		logger.Error().Err(wrappedErr).Msg("Database schema initialization failed")
		return nil, nil, wrappedErr
	}

	b := board.New(database.NewWorkOrderStore(db), cfg.Timeline.PageSize)
	if err := b.Load(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}

	// Seed an empty board from the configured sample data
	if cfg.Service.DataFile != "" && b.Len() == 0 {
		if _, _, err := sampledata.ImportFile(ctx, b, cfg.Service.DataFile, cfg.Location()); err != nil {
			logger.Warn().Err(err).Str("data_file", cfg.Service.DataFile).Msg("Sample data not imported, starting with an empty board")
		}
	}

	return b, closeDB, nil
}

func serveCommand(c *cli.Context) error {
	ctx := c.Context
	logger := logging.GetLogger("main")
	logger.Info().Str("version", version).Str("commit", commit).Str("build_date", date).Msg("Starting shop timeline")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	b, closeDB, err := openBoard(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	appSignals.OnWorkOrderSaved(func(_ context.Context, data appSignals.WorkOrderSavedData) {
		logging.GetLogger("signal-work-order-saved").Info().
			Str("work_order_id", data.Order.ID).
			Str("work_center_id", data.Order.WorkCenterID).
			Bool("created", data.Created).
			Msg("Work order saved")
	}, "main-work-order-saved-handler")
	appSignals.OnWorkOrderDeleted(func(_ context.Context, data appSignals.WorkOrderDeletedData) {
		logging.GetLogger("signal-work-order-deleted").Info().
			Str("work_order_id", data.OrderID).
			Msg("Work order deleted")
	}, "main-work-order-deleted-handler")

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.NewBaseHandler(cfg, b))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.App.Port).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}

func tuiCommand(c *cli.Context, isDev bool) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	scale := cfg.Timeline.DefaultScale
	if value := c.String("scale"); value != "" {
		if scale, err = timeline.ParseScale(value); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	// Keep log lines off the grid
	logPath := c.String("log-file")
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(cfg.Service.StateFile), "shop-timeline.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logging.InitializeWithWriter(logFile, isDev)
	logging.SetLogLevel(cfg.Service.LogLevel)

	b, closeDB, err := openBoard(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	return tui.Run(c.Context, b, tui.Options{
		Settings: viewport.Settings{
			Policy:               cfg.Policy(),
			Mapper:               cfg.Mapper(),
			EdgeThresholdColumns: cfg.Timeline.EdgeThresholdColumns,
		},
		Scale:  scale,
		Layout: cfg.Timeline,
	})
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("usage: shop-timeline import <file.json>", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	b, closeDB, err := openBoard(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	centers, orders, err := sampledata.ImportFile(c.Context, b, path, cfg.Location())
	if err != nil {
		return cli.Exit(fmt.Sprintf("import failed:\n%v", err), 1)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d work centers and %d work orders\n", centers, orders)
	return nil
}

func exportCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("usage: shop-timeline export <file.json|->", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	b, closeDB, err := openBoard(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := b.EnsureRange(c.Context, 0, b.Len()); err != nil {
		return err
	}
	centers := b.Rows(0, b.Len())
	var orders []workorder.WorkOrder
	for _, wc := range centers {
		orders = append(orders, wc.Orders...)
	}

	var w io.Writer = c.App.Writer
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	return sampledata.Encode(w, centers, orders, time.Now())
}
