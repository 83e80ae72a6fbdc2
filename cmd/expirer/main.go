package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/scrolluniversity/certificate-node/internal/buildinfo"
	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/core/services"
	"github.com/scrolluniversity/certificate-node/internal/db"
	"github.com/scrolluniversity/certificate-node/internal/gateways"
	"github.com/scrolluniversity/certificate-node/internal/kms"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/pubsub"
	"github.com/scrolluniversity/certificate-node/internal/repositories"
	"github.com/scrolluniversity/certificate-node/pkg/cache"
)

var build = buildinfo.Revision()

// Periodically moves certificates past their expiry date to the expired status.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout))
	defer cancel()
	log.Info(ctx, "starting expirer", "revision", build, "schedule", cfg.Expirer.Schedule)

	storage, err := db.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Error(ctx, "cannot connect to database", "err", err)
		return
	}
	defer func(storage *db.Storage) {
		if err := storage.Close(); err != nil {
			log.Error(ctx, "error closing database connection", "err", err)
		}
	}(storage)

	// shared with the platform so expired certificates are not served from a stale entry
	cachex, err := cache.NewCacheClient(ctx, cfg.Cache)
	if err != nil {
		log.Error(ctx, "cannot initialize cache", "err", err)
		return
	}

	ps, err := pubsub.NewPubSub(ctx, cfg.PubSub)
	if err != nil {
		log.Error(ctx, "cannot initialize pubsub", "err", err)
		return
	}
	defer func() {
		if err := ps.Close(); err != nil {
			log.Error(ctx, "error closing pubsub", "err", err)
		}
	}()

	keyStore, err := kms.Open(ctx, cfg.KeyStore)
	if err != nil {
		log.Error(ctx, "cannot initialize key store", "err", err)
		return
	}
	ledger, err := gateways.NewLedger(ctx, cfg, keyStore)
	if err != nil {
		log.Error(ctx, "cannot initialize ledger", "err", err)
		return
	}
	documentStore, err := gateways.NewDocumentStore(cfg)
	if err != nil {
		log.Error(ctx, "cannot initialize document store", "err", err)
		return
	}

	repo := repositories.NewCachedCertificate(repositories.NewCertificate(storage), cachex, cfg.Cache.TTL)
	certificateService := services.NewCertificate(repo, ledger, documentStore, ps, services.CertificateConfig{
		ContractAddress:     cfg.Ethereum.ContractAddress,
		VerificationBaseURL: cfg.Certificates.VerificationBaseURL,
		QRCodeBaseURL:       cfg.Certificates.QRCodeBaseURL,
	})

	c := cron.New()
	_, err = c.AddFunc(cfg.Expirer.Schedule, func() {
		expired, err := certificateService.ExpireDue(ctx, time.Now().UTC())
		if err != nil {
			log.Error(ctx, "expiration sweep finished with errors", "err", err, "expired", expired)
			return
		}
		log.Info(ctx, "expiration sweep finished", "expired", expired)
	})
	if err != nil {
		log.Error(ctx, "invalid expirer schedule", "err", err, "schedule", cfg.Expirer.Schedule)
		return
	}
	c.Start()

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	<-gracefulShutdown
	log.Info(ctx, "shutting down")
	<-c.Stop().Done()
}
