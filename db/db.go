package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// NormalizeDriver maps driver aliases ("postgres", "sqlite3") to registered driver names
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// PostgresConfig holds the discrete connection settings used when no DSN is given
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds a key/value connection string
func (c PostgresConfig) DSN() (string, error) {
	if c.Host == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("database connection variables not set. Set a DSN or host, user and name")
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Name, sslmode), nil
}

// Open opens and pings a database. SQLite connections get WAL and a busy timeout.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if name == DriverSQLite {
		// a single writer avoids SQLITE_BUSY between pooled connections
		conn.SetMaxOpenConns(1)
		if _, err := conn.ExecContext(ctx, `
			PRAGMA journal_mode = WAL;
			PRAGMA foreign_keys = ON;
			PRAGMA busy_timeout = 5000;
		`); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set sqlite pragmas: %w", err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}
