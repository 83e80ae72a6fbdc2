package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/api"
	"github.com/scrolluniversity/certificate-node/internal/buildinfo"
	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/core/services"
	"github.com/scrolluniversity/certificate-node/internal/db"
	"github.com/scrolluniversity/certificate-node/internal/gateways"
	"github.com/scrolluniversity/certificate-node/internal/health"
	"github.com/scrolluniversity/certificate-node/internal/kms"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/pubsub"
	"github.com/scrolluniversity/certificate-node/internal/redis"
	"github.com/scrolluniversity/certificate-node/internal/repositories"
	"github.com/scrolluniversity/certificate-node/pkg/cache"
)

var build = buildinfo.Revision()

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		return
	}

	ctx := log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout)
	log.Info(ctx, "starting certificate node", "revision", build)

	if err := cfg.Sanitize(); err != nil {
		log.Error(ctx, "there are errors in the configuration that prevent server to start", "err", err)
		return
	}

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
		log.Error(ctx, "cannot initialize ledger", "err", err, "driver", cfg.Ledger.Driver)
		return
	}
	documentStore, err := gateways.NewDocumentStore(cfg)
	if err != nil {
		log.Error(ctx, "cannot initialize document store", "err", err, "driver", cfg.IPFS.Driver)
		return
	}

	repo := repositories.NewCachedCertificate(repositories.NewCertificate(storage), cachex, cfg.Cache.TTL)
	certificateService := services.NewCertificate(repo, ledger, documentStore, ps, services.CertificateConfig{
		ContractAddress:     cfg.Ethereum.ContractAddress,
		VerificationBaseURL: cfg.Certificates.VerificationBaseURL,
		QRCodeBaseURL:       cfg.Certificates.QRCodeBaseURL,
	})

	pingers := []health.Ping{storage}
	if cfg.Cache.Provider == config.CacheProviderRedis {
		rdb, err := redis.Open(ctx, cfg.Cache.URL)
		if err != nil {
			log.Error(ctx, "cannot connect to redis", "err", err, "host", cfg.Cache.URL)
			return
		}
		pingers = append(pingers, redis.NewPinger(rdb))
	}
	if p, ok := documentStore.(health.Ping); ok {
		pingers = append(pingers, p)
	}

	handler, err := api.NewServer(cfg, certificateService, health.New(pingers...)).Handler(ctx)
	if err != nil {
		log.Error(ctx, "cannot build api handler", "err", err)
		return
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info(ctx, "server started", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "starting http server", "err", err)
		}
	}()

	<-quit
	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "error shutting down http server", "err", err)
	}
}
