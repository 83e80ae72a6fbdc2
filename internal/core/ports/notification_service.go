package ports

import (
	"context"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

// NotificationService represents the notification service interface
type NotificationService interface {
	SendCertificateNotification(ctx context.Context, topic string, payload pubsub.Message) error
}

// NotificationGateway delivers a notification to the configured receiver
type NotificationGateway interface {
	Notify(ctx context.Context, notification *domain.Notification) error
}
