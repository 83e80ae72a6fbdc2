package common

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// keccak256 calculates the Keccak256 hash of the input data.
func keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// CredentialKey computes the registry key of a certificate from its id
func CredentialKey(certificateID string) [32]byte {
	var key [32]byte
	copy(key[:], keccak256([]byte(certificateID)))
	return key
}

// CredentialKeyHex returns the 0x prefixed hex form of CredentialKey
func CredentialKeyHex(certificateID string) string {
	key := CredentialKey(certificateID)
	return "0x" + hex.EncodeToString(key[:])
}
