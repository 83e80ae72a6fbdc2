package repositories

import (
	"context"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/log"
	"github.com/scrolluniversity/certificate-node/pkg/cache"
)

const certificateCacheKeyPrefix = "certificate-node:certificate:"

type cachedCertificate struct {
	repo  ports.CertificateRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedCertificate decorates repo with a read through cache for lookups by id.
// Writes go to repo first and then invalidate the entry.
func NewCachedCertificate(repo ports.CertificateRepository, c cache.Cache, ttl time.Duration) *cachedCertificate {
	return &cachedCertificate{repo: repo, cache: c, ttl: ttl}
}

func (r *cachedCertificate) Save(ctx context.Context, cert *domain.Certificate) error {
	return r.repo.Save(ctx, cert)
}

func (r *cachedCertificate) Update(ctx context.Context, cert *domain.Certificate) error {
	if err := r.repo.Update(ctx, cert); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, certificateCacheKey(cert.CertificateID)); err != nil {
		log.Warn(ctx, "invalidating cached certificate", "err", err, "certificateId", cert.CertificateID)
	}
	return nil
}

func (r *cachedCertificate) GetByID(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	key := certificateCacheKey(certificateID)
	var cert domain.Certificate
	if r.cache.Get(ctx, key, &cert) {
		c := clone(&cert)
		return &c, nil
	}
	found, err := r.repo.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, clone(found), r.ttl); err != nil {
		log.Warn(ctx, "caching certificate", "err", err, "certificateId", certificateID)
	}
	return found, nil
}

func (r *cachedCertificate) GetByRecipient(ctx context.Context, recipientAddress string) ([]*domain.Certificate, error) {
	return r.repo.GetByRecipient(ctx, recipientAddress)
}

func (r *cachedCertificate) GetActiveExpiringBefore(ctx context.Context, t time.Time) ([]*domain.Certificate, error) {
	return r.repo.GetActiveExpiringBefore(ctx, t)
}

func certificateCacheKey(certificateID string) string {
	return certificateCacheKeyPrefix + certificateID
}
