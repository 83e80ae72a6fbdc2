package services

import (
	"context"
	"errors"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/core/event"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

// ExpireDue moves every ACTIVE certificate whose expiry date is not after now to EXPIRED.
// It keeps going when a single update fails and returns how many certificates expired.
func (c *Certificate) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := c.repo.GetActiveExpiringBefore(ctx, now)
	if err != nil {
		log.Error(ctx, "loading certificates due to expire", "err", err)
		return 0, err
	}

	var (
		expired int
		errs    []error
	)
	for _, cert := range due {
		if !cert.IsExpiredAt(now) {
			continue
		}
		if err := cert.Expire(now); err != nil {
			log.Warn(ctx, "certificate can not expire", "err", err, "certificateId", cert.CertificateID, "status", cert.Status)
			continue
		}
		if err := c.repo.Update(ctx, cert); err != nil {
			log.Error(ctx, "updating expired certificate", "err", err, "certificateId", cert.CertificateID)
			errs = append(errs, err)
			continue
		}
		expired++
		c.publish(ctx, event.CertificateExpiredEvent, cert, "")
	}
	log.Info(ctx, "expiration sweep done", "due", len(due), "expired", expired)
	return expired, errors.Join(errs...)
}
