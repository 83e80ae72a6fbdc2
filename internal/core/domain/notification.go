package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the body delivered to the webhook on every certificate lifecycle event
type Notification struct {
	ID              uuid.UUID         `json:"id"`
	Topic           string            `json:"topic"`
	CertificateID   string            `json:"certificateId"`
	Status          CertificateStatus `json:"status"`
	Recipient       string            `json:"recipientAddress"`
	InstitutionID   string            `json:"institutionId"`
	VerificationURL string            `json:"verificationUrl,omitempty"`
	CourseName      string            `json:"courseName,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	SentAt          time.Time         `json:"sentAt"`
}

// NotificationSubject is the part of the certificate payload that is forwarded with a notification
type NotificationSubject struct {
	CourseName string `json:"courseName"`
}
