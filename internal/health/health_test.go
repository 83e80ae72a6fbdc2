package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	"github.com/scrolluniversity/certificate-node/internal/gateways"
	iRedis "github.com/scrolluniversity/certificate-node/internal/redis"
)

type unknownPinger struct{}

func (unknownPinger) Ping(context.Context) error { return nil }

func TestStatus(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ipfsDown := httptest.NewServer(http.NotFoundHandler())
	ipfsDown.Close()

	status := New(iRedis.NewPinger(rdb), gateways.NewIPFSStore(ipfsDown.URL, ""), unknownPinger{})
	assert.Equal(t, map[string]bool{"redis": true, "ipfs": false}, status.Status(ctx))

	mr.Close()
	assert.Equal(t, map[string]bool{"redis": false, "ipfs": false}, status.Status(ctx))
}
