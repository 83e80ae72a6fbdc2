package event

import (
	"encoding/json"
	"time"

	"github.com/scrolluniversity/certificate-node/pkg/pubsub"
)

const (
	CertificateIssuedEvent    = "certificate.issued"    // CertificateIssuedEvent a certificate was issued
	CertificateRenewedEvent   = "certificate.renewed"   // CertificateRenewedEvent a renewal certificate was issued
	CertificateRevokedEvent   = "certificate.revoked"   // CertificateRevokedEvent a certificate was revoked
	CertificateExpiredEvent   = "certificate.expired"   // CertificateExpiredEvent a certificate reached its expiry date
	CertificateActivatedEvent = "certificate.activated" // CertificateActivatedEvent joint validation completed
)

// Topics lists every certificate lifecycle topic
var Topics = []string{
	CertificateIssuedEvent,
	CertificateRenewedEvent,
	CertificateRevokedEvent,
	CertificateExpiredEvent,
	CertificateActivatedEvent,
}

// CertificateLifecycle defines the data of every certificate lifecycle event
type CertificateLifecycle struct {
	CertificateID    string    `json:"certificateId"`
	InstitutionID    string    `json:"institutionId"`
	RecipientAddress string    `json:"recipientAddress"`
	Status           string    `json:"status"`
	RenewedFrom      string    `json:"renewedFrom,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// Marshal marshals the event into a pubsub.Message
func (ev *CertificateLifecycle) Marshal() (msg pubsub.Message, err error) {
	return json.Marshal(ev)
}

// Unmarshal creates an event from that message
func (ev *CertificateLifecycle) Unmarshal(msg pubsub.Message) error {
	return json.Unmarshal(msg, &ev)
}
