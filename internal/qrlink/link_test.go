package qrlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVerificationURL(t *testing.T) {
	assert.Equal(t, "https://verify.scrolluniversity.edu/verify/CERT_00112233AABBCCDD",
		NewVerificationURL("https://verify.scrolluniversity.edu/", "CERT_00112233AABBCCDD"))
}

func TestNewQRCode(t *testing.T) {
	expected := "https://api.qrserver.com/v1/create-qr-code/?size=256x256&data=https%3A%2F%2Fverify.scrolluniversity.edu%2Fverify%2FCERT_00112233AABBCCDD"
	got := NewQRCode("https://api.qrserver.com/v1/create-qr-code/", "https://verify.scrolluniversity.edu", "CERT_00112233AABBCCDD")
	assert.Equal(t, expected, got)
	assert.Equal(t, got, NewQRCode("https://api.qrserver.com/v1/create-qr-code/", "https://verify.scrolluniversity.edu", "CERT_00112233AABBCCDD"))
}
