// Command migrate creates or updates the database schema.
package main

import (
	"fmt"
	"log"

	"noticeboard/internal/config"
	"noticeboard/internal/database"
	"noticeboard/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.SetupLogger(cfg.Env)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Info("schema is up to date", "driver", cfg.DBDriver)
	return nil
}
