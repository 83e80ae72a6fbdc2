package db

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

const applicationName = "certificate-node"

// Storage wraps the postgres connection pool
type Storage struct {
	Pgx *pgxpool.Pool
}

// NewStorage opens a pool against connectionString. Connections report themselves as
// certificate-node in pg_stat_activity.
func NewStorage(connectionString string) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.ConnectConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return &Storage{Pgx: pool}, nil
}

// Ping lets Storage be registered as a health pinger
func (s *Storage) Ping(ctx context.Context) error {
	return s.Pgx.Ping(ctx)
}

// Close releases every pooled connection
func (s *Storage) Close() error {
	log.Info(context.Background(), "closing postgres pool", "totalConns", s.Pgx.Stat().TotalConns())
	s.Pgx.Close()
	return nil
}
