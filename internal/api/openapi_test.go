package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument(context.Background())
	require.NoError(t, err)

	for _, path := range []string{
		"/v1/certificates",
		"/v1/certificates/batch-verify",
		"/v1/certificates/{id}",
		"/v1/certificates/{id}/verify",
		"/v1/certificates/{id}/renew",
		"/v1/certificates/{id}/revoke",
		"/v1/certificates/{id}/approve",
		"/v1/certificates/{id}/reject",
		"/v1/recipients/{address}/certificates",
		"/v1/contract",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
}
