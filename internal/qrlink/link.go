package qrlink

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	verificationPath = "%s/verify/%s"
	qrCodeQuery      = "%s?size=256x256&data=%s"
)

// NewVerificationURL returns the public url where a certificate can be verified.
// The result only depends on the base url and the certificate id.
func NewVerificationURL(baseURL string, certificateID string) string {
	return fmt.Sprintf(verificationPath, strings.TrimSuffix(baseURL, "/"), url.PathEscape(certificateID))
}

// NewQRCode returns the url of a QR image encoding the verification url of the certificate
func NewQRCode(qrBaseURL string, verificationBaseURL string, certificateID string) string {
	return fmt.Sprintf(qrCodeQuery, qrBaseURL, url.QueryEscape(NewVerificationURL(verificationBaseURL, certificateID)))
}
