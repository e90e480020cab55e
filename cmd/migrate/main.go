package main

import (
	"database/sql"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/config"
	"github.com/sean-rowe/weather-history-service/internal/infrastructure/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var (
		action  = flag.String("action", "up", "Migration action: up, down, version, force")
		version = flag.Int("version", -1, "Target version for force")
		driver  = flag.String("driver", cfg.Database.Driver, "Database driver: sqlite3 or postgres")
		dsn     = flag.String("dsn", cfg.Database.DSN, "Database DSN")
	)

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	db, err := database.Open(database.Config{
		Driver:                *driver,
		DSN:                   *dsn,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("driver", *driver), zap.Error(err))
	}

	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}(db)

	switch *action {
	case "up":
		if err := database.RunMigrations(db, *driver, logger); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}

		logger.Info("Migrations completed successfully")

	case "down":
		if err := database.MigrateDown(db, *driver, logger); err != nil {
			logger.Fatal("Rollback failed", zap.Error(err))
		}

		logger.Info("Rollback completed successfully")

	case "version":
		current, dirty, err := database.MigrationVersion(db, *driver)
		if err != nil {
			logger.Fatal("Failed to read migration version", zap.Error(err))
		}

		logger.Info("Current migration version",
			zap.Uint("version", current),
			zap.Bool("dirty", dirty))

	case "force":
		if *version < 0 {
			logger.Fatal("Version must be specified with -version flag")
		}

		if err := database.ForceVersion(db, *driver, *version, logger); err != nil {
			logger.Fatal("Force migration failed",
				zap.Int("version", *version),
				zap.Error(err))
		}

		logger.Info("Forced migration version",
			zap.Int("version", *version))

	default:
		logger.Fatal("Invalid action",
			zap.String("action", *action))
	}
}
