package rand

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexID(t *testing.T) {
	re := regexp.MustCompile(`^CERT_[A-F0-9]{16}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := HexID("CERT_", 8)
		require.NoError(t, err)
		assert.Regexp(t, re, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
