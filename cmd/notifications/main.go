package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrolluniversity/certificate-node/internal/buildinfo"
	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/core/event"
	"github.com/scrolluniversity/certificate-node/internal/core/services"
	"github.com/scrolluniversity/certificate-node/internal/db"
	"github.com/scrolluniversity/certificate-node/internal/gateways"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/internal/pubsub"
	"github.com/scrolluniversity/certificate-node/internal/repositories"
	"github.com/scrolluniversity/certificate-node/pkg/http"
	pkgpubsub "github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

var build = buildinfo.Revision()

// Listens to certificate lifecycle events and forwards them to the configured webhook.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout))
	defer cancel()
	log.Info(ctx, "starting notifications", "revision", build)

	if cfg.PubSub.URL == "" {
		cfg.PubSub.URL = cfg.Cache.URL
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

	notificationGateway := gateways.NewWebhookNotificationClient(http.NewRetryClient(cfg.Notifications.RetryMax), cfg.Notifications.WebhookURL)
	notificationService := services.NewNotification(notificationGateway, repositories.NewCertificate(storage))

	for _, topic := range event.Topics {
		topic := topic
		ps.Subscribe(ctx, topic, func(ctx context.Context, msg pkgpubsub.Message) error {
			return notificationService.SendCertificateNotification(ctx, topic, msg)
		})
	}

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	<-gracefulShutdown
	log.Info(ctx, "shutting down")
}
