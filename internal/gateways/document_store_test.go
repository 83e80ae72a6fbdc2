package gateways

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrolluniversity/certificate-node/internal/core/domain"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
)

// fakeIPFSNode serves the subset of the IPFS HTTP API the store uses
type fakeIPFSNode struct {
	mu      sync.Mutex
	content map[string][]byte
	pins    map[string]int
}

func newFakeIPFSNode(t *testing.T) (*fakeIPFSNode, *httptest.Server) {
	t.Helper()
	node := &fakeIPFSNode{content: map[string][]byte{}, pins: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", func(w http.ResponseWriter, r *http.Request) {
		data, err := readAddBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		hash := contentHash(data)
		if r.URL.Query().Get("only-hash") != "true" {
			node.mu.Lock()
			node.content[hash] = data
			node.mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"Name": hash, "Hash": hash, "Size": strconv.Itoa(len(data))})
	})
	mux.HandleFunc("/api/v0/cat", func(w http.ResponseWriter, r *http.Request) {
		node.mu.Lock()
		data, ok := node.content[r.URL.Query().Get("arg")]
		node.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"Message": "block not found", "Code": 0, "Type": "error"})
			return
		}
		_, _ = w.Write(data)
	})
	mux.HandleFunc("/api/v0/pin/add", func(w http.ResponseWriter, r *http.Request) {
		hash := r.URL.Query().Get("arg")
		node.mu.Lock()
		node.pins[hash]++
		node.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string][]string{"Pins": {hash}})
	})
	mux.HandleFunc("/api/v0/version", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"Version": "0.29.0"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return node, srv
}

func readAddBody(r *http.Request) ([]byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	part, err := mr.NextPart()
	if err != nil {
		return nil, err
	}
	return io.ReadAll(part)
}

func (n *fakeIPFSNode) tamper(hash string, data []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.content[hash] = data
}

func TestDocumentStores(t *testing.T) {
	ctx := context.Background()
	node, srv := newFakeIPFSNode(t)
	memory := NewMemoryDocumentStore("https://ipfs.io")

	type testConfig struct {
		name   string
		store  ports.DocumentStore
		tamper func(hash string, data []byte)
	}
	for _, tc := range []testConfig{
		{name: "memory", store: memory, tamper: memory.Tamper},
		{name: "ipfs", store: NewIPFSStore(srv.URL, "https://ipfs.io/"), tamper: node.tamper},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc := domain.CertificateData{"courseName": "Systematic Theology", "grade": "A"}
			stored, err := tc.store.Upload(ctx, doc)
			require.NoError(t, err)
			assert.Regexp(t, "^Qm[1-9A-HJ-NP-Za-km-z]{44}$", stored.Hash)
			assert.Equal(t, "https://ipfs.io/ipfs/"+stored.Hash, stored.URL)
			assert.Positive(t, stored.Size)

			again, err := tc.store.Upload(ctx, doc)
			require.NoError(t, err)
			assert.Equal(t, stored.Hash, again.Hash)

			require.NoError(t, tc.store.Pin(ctx, stored.Hash))
			require.NoError(t, tc.store.Pin(ctx, stored.Hash))

			retrieved, err := tc.store.Retrieve(ctx, stored.Hash)
			require.NoError(t, err)
			assert.JSONEq(t, `{"courseName":"Systematic Theology","grade":"A"}`, string(retrieved.Content))

			intact, err := tc.store.VerifyIntegrity(ctx, stored.Hash)
			require.NoError(t, err)
			assert.True(t, intact)

			tc.tamper(stored.Hash, []byte(`{"courseName":"Systematic Theology","grade":"A+"}`))
			intact, err = tc.store.VerifyIntegrity(ctx, stored.Hash)
			require.NoError(t, err)
			assert.False(t, intact)
		})
	}

	assert.Len(t, node.pins, 1)
}

func TestMemoryDocumentStore_Missing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore("")

	_, err := store.Retrieve(ctx, "QmMissing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, store.Pin(ctx, "QmMissing"), ErrDocumentNotFound)

	intact, err := store.VerifyIntegrity(ctx, "QmMissing")
	require.NoError(t, err)
	assert.False(t, intact)

	stored, err := store.Upload(ctx, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.False(t, store.IsPinned(stored.Hash))
	require.NoError(t, store.Pin(ctx, stored.Hash))
	assert.True(t, store.IsPinned(stored.Hash))
}

func TestIPFSStore_RetrieveUnknown(t *testing.T) {
	_, srv := newFakeIPFSNode(t)
	store := NewIPFSStore(srv.URL, "")

	_, err := store.Retrieve(context.Background(), "QmUrDHtC3fGYg1CqWzrgbxU5tXeQa4y323h277m6hXX84k")
	assert.Error(t, err)
}

func TestIPFSStore_Ping(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeIPFSNode(t)
	assert.NoError(t, NewIPFSStore(srv.URL, "").Ping(ctx))

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	assert.Error(t, NewIPFSStore(down.URL, "").Ping(ctx))
}
