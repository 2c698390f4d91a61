package db

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its dialect and filesystem in package state
var gooseMu sync.Mutex

func gooseDialect(driver string) (string, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return "", err
	}
	if name == DriverSQLite {
		return "sqlite3", nil
	}
	return "postgres", nil
}

func setupGoose(driver string) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Migrate runs all pending embedded migrations
func Migrate(conn *sql.DB, driver string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := setupGoose(driver); err != nil {
		return err
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version
func MigrationVersion(conn *sql.DB, driver string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := setupGoose(driver); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersion(conn)
	if err != nil {
		return 0, fmt.Errorf("get goose version: %w", err)
	}
	return version, nil
}
