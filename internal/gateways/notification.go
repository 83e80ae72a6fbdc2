package gateways

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/pkg/http"
)

// WebhookClient posts certificate notifications to a configured endpoint
type WebhookClient struct {
	conn *http.Client
	url  string
}

// NewWebhookNotificationClient returns a notification gateway posting to url
func NewWebhookNotificationClient(conn *http.Client, url string) ports.NotificationGateway {
	return &WebhookClient{
		conn: conn,
		url:  url,
	}
}

// Notify sends the notification in json format. An empty webhook url drops the notification.
func (c *WebhookClient) Notify(ctx context.Context, notification *domain.Notification) error {
	if c.url == "" {
		log.Debug(ctx, "webhook url not configured, notification dropped", "topic", notification.Topic)
		return nil
	}
	reqBody, err := json.Marshal(notification)
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err := c.conn.Post(ctx, c.url, reqBody); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
