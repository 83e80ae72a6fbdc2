package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyMap(t *testing.T) {
	m1 := map[string]any{
		"hello": "world",
		"foo": map[string]any{
			"bar": 123,
		},
		"list": []any{"a", map[string]any{"b": 1}},
	}

	m2 := CopyMap(m1)

	m1["hello"] = "!world"
	delete(m1, "foo")
	m1["list"].([]any)[1].(map[string]any)["b"] = 2

	require.Equal(t, map[string]any{
		"hello": "world",
		"foo": map[string]any{
			"bar": 123,
		},
		"list": []any{"a", map[string]any{"b": 1}},
	}, m2)
}

func TestCredentialKey(t *testing.T) {
	// keccak256("") is a well known constant
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", CredentialKeyHex(""))
	assert.Equal(t, CredentialKey("CERT_00112233AABBCCDD"), CredentialKey("CERT_00112233AABBCCDD"))
	assert.NotEqual(t, CredentialKey("CERT_00112233AABBCCDD"), CredentialKey("CERT_00112233AABBCCDE"))
}
