package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scrolluniversity/certificate-node/internal/common"
	"github.com/scrolluniversity/certificate-node/internal/core/domain"
)

type certificateInMemory struct {
	mu    sync.RWMutex
	certs map[string]domain.Certificate
}

// NewCertificateInMemory returns certificateRepository implemented in memory convenient for testing
func NewCertificateInMemory() *certificateInMemory {
	return &certificateInMemory{certs: make(map[string]domain.Certificate)}
}

func (s *certificateInMemory) Save(_ context.Context, cert *domain.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.certs[cert.CertificateID]; found {
		return ErrCertificateDuplication
	}
	s.certs[cert.CertificateID] = clone(cert)
	return nil
}

func (s *certificateInMemory) Update(_ context.Context, cert *domain.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.certs[cert.CertificateID]; !found {
		return ErrCertificateDoesNotExist
	}
	s.certs[cert.CertificateID] = clone(cert)
	return nil
}

func (s *certificateInMemory) GetByID(_ context.Context, certificateID string) (*domain.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, found := s.certs[certificateID]; found {
		c := clone(&cert)
		return &c, nil
	}
	return nil, ErrCertificateDoesNotExist
}

func (s *certificateInMemory) GetByRecipient(_ context.Context, recipientAddress string) ([]*domain.Certificate, error) {
	return s.filter(func(c *domain.Certificate) bool {
		return c.RecipientAddress == recipientAddress
	}), nil
}

func (s *certificateInMemory) GetActiveExpiringBefore(_ context.Context, t time.Time) ([]*domain.Certificate, error) {
	return s.filter(func(c *domain.Certificate) bool {
		return c.Status == domain.CertificateStatusActive && c.IsExpiredAt(t)
	}), nil
}

func (s *certificateInMemory) filter(match func(c *domain.Certificate) bool) []*domain.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	certs := make([]*domain.Certificate, 0)
	for _, cert := range s.certs {
		if match(&cert) {
			c := clone(&cert)
			certs = append(certs, &c)
		}
	}
	sort.Slice(certs, func(i, j int) bool {
		return certs[i].CreatedAt.Before(certs[j].CreatedAt)
	})
	return certs
}

// clone copies the certificate so callers can not mutate the stored value
func clone(cert *domain.Certificate) domain.Certificate {
	c := *cert
	c.CertificateData = common.CopyMap(cert.CertificateData)
	return c
}
