package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq" // goose runs on database/sql
	"github.com/pressly/goose/v3"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

const (
	dialect       = "postgres"
	migrationsDir = "migrations"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending certificate migration and returns the resulting schema version
func Migrate(databaseURL string) (int64, error) {
	var version int64
	err := withDB(databaseURL, func(conn *sql.DB) error {
		if err := goose.Up(conn, migrationsDir); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		v, err := goose.GetDBVersion(conn)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

func withDB(databaseURL string, f func(conn *sql.DB) error) error {
	conn, err := sql.Open(dialect, databaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error(context.Background(), "closing migration connection", "err", err)
		}
	}()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return f(conn)
}
