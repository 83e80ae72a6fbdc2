package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/event"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

type notification struct {
	notificationGateway ports.NotificationGateway
	repo                ports.CertificateRepository
}

// NewNotification returns a Notification Service
func NewNotification(notificationGateway ports.NotificationGateway, repo ports.CertificateRepository) ports.NotificationService {
	return &notification{
		notificationGateway: notificationGateway,
		repo:                repo,
	}
}

func (n *notification) SendCertificateNotification(ctx context.Context, topic string, payload pubsub.Message) error {
	var ev event.CertificateLifecycle
	if err := ev.Unmarshal(payload); err != nil {
		return errors.New("sendCertificateNotification unexpected data type")
	}

	msg := &domain.Notification{
		ID:            uuid.New(),
		Topic:         topic,
		CertificateID: ev.CertificateID,
		Status:        domain.CertificateStatus(ev.Status),
		Recipient:     ev.RecipientAddress,
		InstitutionID: ev.InstitutionID,
		Reason:        ev.Reason,
		SentAt:        time.Now().UTC(),
	}
	// the event only carries ids, the verification url lives in the certificate
	if cert, err := n.repo.GetByID(ctx, ev.CertificateID); err == nil {
		msg.VerificationURL = cert.VerificationURL
		var subject domain.NotificationSubject
		if err := cert.CertificateData.Decode(&subject); err != nil {
			log.Warn(ctx, "sendCertificateNotification: cannot decode certificate data", "err", err, "certificateId", ev.CertificateID)
		}
		msg.CourseName = subject.CourseName
	} else {
		log.Warn(ctx, "sendCertificateNotification: certificate not found", "err", err, "certificateId", ev.CertificateID)
	}

	if err := n.notificationGateway.Notify(ctx, msg); err != nil {
		log.Error(ctx, "sendCertificateNotification: notify", "err", err, "certificateId", ev.CertificateID, "topic", topic)
		return err
	}
	log.Info(ctx, "sendCertificateNotification: sent", "certificateId", ev.CertificateID, "topic", topic)
	return nil
}
