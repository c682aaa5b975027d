// stratplan: strategy feasibility planner
//
// Decides whether the inventory on hand can cover a production strategy's
// demand, records each calculation, and serves the results through a
// terminal UI or an HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stratplan/stratplan/internal/api"
	"github.com/stratplan/stratplan/internal/config"
	"github.com/stratplan/stratplan/internal/database"
	"github.com/stratplan/stratplan/internal/database/seed"
	"github.com/stratplan/stratplan/internal/services/feasibility"
	"github.com/stratplan/stratplan/internal/services/inventory"
	"github.com/stratplan/stratplan/internal/tui"
	"github.com/stratplan/stratplan/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	migrateOnly bool
	migrateInfo bool
	rollback    bool
	seedData    bool
	debug       bool
	serve       bool
	calculate   string
	excludeDNT  bool
}

func main() {
	var opts options
	var showVersion bool
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.migrateOnly, "migrate-only", false, "Run migrations and exit")
	flag.BoolVar(&opts.migrateInfo, "migrate-status", false, "Print migration status and exit")
	flag.BoolVar(&opts.rollback, "rollback", false, "Roll back the most recent migration and exit")
	flag.BoolVar(&opts.seedData, "seed", false, "Generate demo data and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API instead of the terminal UI")
	flag.StringVar(&opts.calculate, "calculate", "", "Calculate the strategy with this id, print the result as JSON and exit")
	flag.BoolVar(&opts.excludeDNT, "exclude-do-not-touch", false, "With -calculate, ignore lots in do_not_touch warehouses")
	flag.Parse()

	if showVersion {
		fmt.Printf("stratplan version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, cfgPath, err := config.Load(opts.configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, closeLog, err := setupLogging(cfg, opts.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("stratplan starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	db, err := openDatabase(ctx, cfg, logger, !opts.migrateInfo && !opts.rollback)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("closing database")
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	switch {
	case opts.migrateInfo:
		return printMigrationStatus(ctx, db)

	case opts.rollback:
		return rollback(ctx, db, logger)

	case opts.migrateOnly:
		logger.Info("migrations complete, exiting")
		return nil

	case opts.seedData:
		summary, err := seed.NewGenerator(db.DB, db, seed.DefaultConfig()).Generate(ctx)
		if err != nil {
			return fmt.Errorf("generating seed data: %w", err)
		}
		if summary.Skipped {
			fmt.Println("database already contains strategies, seed skipped")
		} else {
			fmt.Printf("seeded %d strategies, %d products, %d resources, %d lots\n",
				summary.Strategies, summary.Products, summary.Resources, summary.Lots)
		}
		return nil

	case opts.calculate != "":
		return calculateOnce(ctx, db, cfg, logger, opts)

	case opts.serve:
		return serve(ctx, db, cfg, logger, opts.debug)
	}

	tui.Version = Version
	tui.BuildTime = BuildTime

	logger.Info("starting TUI", "color_scheme", cfg.Display.ColorScheme)
	if err := tui.Run(ctx, db, cfg, logger); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("stratplan shutdown complete")
	return nil
}

// setupLogging installs the default logger: JSON into the configured log
// file, or text on stderr when none is set.
func setupLogging(cfg *config.Config, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	closeLog := func() {}

	var handler slog.Handler
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closeLog = func() { logFile.Close() }
		handler = slog.NewJSONHandler(logFile, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

// openDatabase recovers a damaged file from backup if needed, opens it and,
// when migrate is set, applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		logger.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	if dbPath != ":memory:" {
		rec, err := database.Recover(ctx, dbPath, backupDir, logger)
		if err != nil {
			return nil, fmt.Errorf("database recovery failed: %w", err)
		}
		if rec.Outcome == database.RecoveryRestored {
			logger.Warn("database restored from backup", "backup", rec.Backup)
		}
	}

	db, err := database.Open(dbPath, &cfg.Database, backupDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("database open", "path", db.Path())

	if !migrate {
		return db, nil
	}

	migrator, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if len(result.Applied) > 0 {
		logger.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	return db, nil
}

func printMigrationStatus(ctx context.Context, db *database.DB) error {
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	migrations, err := migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	for _, m := range migrations {
		state := "pending"
		if m.Applied {
			state = "applied " + m.AppliedAt.Format(time.DateTime)
		}
		fmt.Printf("%03d  %-28s %s\n", m.Version, m.Description, state)
	}
	return nil
}

func rollback(ctx context.Context, db *database.DB, logger *slog.Logger) error {
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	result, err := migrator.MigrateDown(ctx)
	if err != nil {
		return fmt.Errorf("rolling back: %w", err)
	}
	logger.Info("rolled back migration", "now_at", result.CurrentVersion)
	fmt.Printf("schema now at version %d\n", result.CurrentVersion)
	return nil
}

// calculateOnce runs one calculation and prints the result as JSON.
func calculateOnce(ctx context.Context, db *database.DB, cfg *config.Config, logger *slog.Logger, opts options) error {
	calc := feasibility.NewService(db, cfg.Calculation, feasibility.WithLogger(logger))

	policy := calc.DefaultPolicy()
	if opts.excludeDNT {
		policy.ExcludeDoNotTouchWarehouses = true
	}

	result, err := calc.Calculate(ctx, feasibility.Request{StrategyID: opts.calculate, Policy: policy})
	if err != nil {
		return fmt.Errorf("calculating strategy %s: %w", opts.calculate, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// serve runs the HTTP API until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, db *database.DB, cfg *config.Config, logger *slog.Logger, debug bool) error {
	calc := feasibility.NewService(db, cfg.Calculation, feasibility.WithLogger(logger))
	inv := inventory.NewService(db, cfg.Calculation, util.SystemClock{})

	router := api.NewRouter(api.NewHandlers(db, calc, inv), logger, debug || cfg.Server.Debug)
	srv := api.NewServer(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
