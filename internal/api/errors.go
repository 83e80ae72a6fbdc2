package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/scrolluniversity/certificate-node/internal/core/services"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

// errorStatus maps service errors to http status codes. The order matters, a stage error
// wrapping a known cause is reported with the cause status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInstitutionNotAccredited):
		return http.StatusForbidden
	case errors.Is(err, services.ErrCertificateNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCannotRenewInvalidCertificate),
		errors.Is(err, services.ErrCertificateAlreadyRevoked),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "err", err)
	}
	writeJSON(w, r, status, GenericMessage{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// decodeBody reads the JSON body into dst. It writes a 400 and returns false when the body is not valid.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Debug(r.Context(), "cannot decode request body", "err", err)
		writeJSON(w, r, http.StatusBadRequest, GenericMessage{Message: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
