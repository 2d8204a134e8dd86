package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/queuectl/queuectl/internal/cli"
	"github.com/queuectl/queuectl/internal/config"
	"github.com/queuectl/queuectl/internal/migrate"
	"github.com/queuectl/queuectl/internal/queue"
	"github.com/queuectl/queuectl/internal/queue/settings"
	"github.com/queuectl/queuectl/internal/queue/storage"
	"github.com/queuectl/queuectl/shared/logger"
	"github.com/queuectl/queuectl/shared/sqldb"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbClient, err := sqldb.NewClient(&sqldb.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.Run(dbClient.DB().DB, dbClient.Driver()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	store := storage.NewStore(dbClient.DB(), appLogger.Logger)
	settingsStore := settings.NewStore(dbClient.DB())
	q := queue.New(store, settingsStore, appLogger.Logger)

	appLogger.Debug("queuectl initialized",
		slog.String("driver", cfg.Database.Driver),
	)

	return cli.Execute(&cli.App{
		Config:   cfg,
		Logger:   appLogger,
		DB:       dbClient,
		Queue:    q,
		Settings: settingsStore,
	})
}

// configPath resolves the YAML config location: QUEUECTL_CONFIG_PATH wins,
// otherwise the per-user config directory. A missing file is fine; the
// compiled-in defaults apply.
func configPath() string {
	if path := os.Getenv("QUEUECTL_CONFIG_PATH"); path != "" {
		return path
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "queuectl.yaml"
	}
	return filepath.Join(configDir, "queuectl", "config.yaml")
}
