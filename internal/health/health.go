package health

import (
	"context"

	"github.com/scrolluniversity/certificate-node/internal/db"
	"github.com/scrolluniversity/certificate-node/internal/gateways"
	iRedis "github.com/scrolluniversity/certificate-node/internal/redis"
)

const (
	redis = "redis"
	pg    = "db"
	ipfs  = "ipfs"
)

// Status struct
type Status struct {
	pingers map[string]Ping
}

// Ping interface
type Ping interface {
	Ping(ctx context.Context) error
}

// New returns a Health instance. Pingers of an unknown kind are ignored.
func New(pingers ...Ping) *Status {
	m := make(map[string]Ping)

	for _, p := range pingers {
		switch t := p.(type) {
		case *db.Storage:
			m[pg] = t
		case *iRedis.Pinger:
			m[redis] = t
		case *gateways.IPFSStore:
			m[ipfs] = t
		}
	}

	return &Status{m}
}

// Status returns whether every registered dependency answers
func (h *Status) Status(ctx context.Context) map[string]bool {
	m := make(map[string]bool)

	for key, val := range h.pingers {
		m[key] = true
		if err := val.Ping(ctx); err != nil {
			m[key] = false
		}
	}

	return m
}
