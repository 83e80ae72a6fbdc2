package main

import (
	"context"
	"os"

	"github.com/scrolluniversity/certificate-node/internal/buildinfo"
	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/db/schema"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

// Applies the certificates schema to ISSUER_DATABASE_URL.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		os.Exit(1)
	}

	ctx := log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout)
	if cfg.Database.URL == "" {
		log.Error(ctx, "ISSUER_DATABASE_URL is required to run migrations")
		os.Exit(1)
	}

	version, err := schema.Migrate(cfg.Database.URL)
	if err != nil {
		log.Error(ctx, "error migrating database", "err", err)
		os.Exit(1)
	}

	log.Info(ctx, "certificates schema is up to date", "version", version, "revision", buildinfo.Revision())
}
