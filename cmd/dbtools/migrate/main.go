// cmd/dbtools/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/db"
	"github.com/codr1/refschedule/internal/logging"
)

func main() {
	var (
		dbPath         = flag.String("db", "", "Path to SQLite database")
		migrationsPath = flag.String("migrations", "", "Path to migrations directory (defaults to the embedded migrations)")
		command        = flag.String("command", "", "Command to run (up, down, version)")
	)
	flag.Parse()
	logging.Setup(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))

	if *dbPath == "" || *command == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	var err error
	if *migrationsPath == "" {
		err = runEmbedded(*dbPath, *command)
	} else {
		err = runFromDir(*dbPath, *migrationsPath, *command)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
	}
}

func runEmbedded(dbPath, command string) error {
	switch command {
	case "up":
		database, err := db.New(dbPath)
		if err != nil {
			return err
		}
		return database.Close()
	case "down":
		return db.MigrateDown(dbPath)
	case "version":
		database, err := db.New(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		version, dirty, err := database.Version()
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration version")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runFromDir(dbPath, migrationsPath, command string) error {
	absMigrations, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("invalid migrations path: %w", err)
	}
	if _, err := os.Stat(absMigrations); err != nil {
		return fmt.Errorf("migrations directory: %w", err)
	}

	m, err := migrate.New(
		fmt.Sprintf("file://%s", absMigrations),
		fmt.Sprintf("sqlite3://%s", dbPath),
	)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("get version failed: %w", err)
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration version")
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}
