package rand

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// HexID returns prefix followed by n random bytes encoded as uppercase hex.
func HexID(prefix string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
