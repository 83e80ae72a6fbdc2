package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/core/ports"
	"github.com/scrolluniversity/certificate-node/internal/health"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

const basicAuthRealm = "restricted"

// Server serves the certificate API
type Server struct {
	cfg          *config.Configuration
	certificates ports.CertificateService
	health       *health.Status
}

// NewServer is a Server constructor
func NewServer(cfg *config.Configuration, certificates ports.CertificateService, health *health.Status) *Server {
	return &Server{
		cfg:          cfg,
		certificates: certificates,
		health:       health,
	}
}

// Handler builds the router. Read operations are public, the ones that change a certificate
// require basic auth.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	doc, err := LoadDocument(ctx)
	if err != nil {
		log.Error(ctx, "invalid api document", "err", err)
		return nil, err
	}
	validator, err := RequestValidator(doc)
	if err != nil {
		log.Error(ctx, "cannot build request validator", "err", err)
		return nil, err
	}

	mux := chi.NewRouter()
	mux.Use(
		middleware.RequestID,
		log.ChiMiddleware(ctx),
		middleware.Recoverer,
		cors.AllowAll().Handler,
	)
	RegisterStatic(mux)
	mux.Get("/status", s.Health)

	mux.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(validator)
			r.Get("/certificates/{id}", s.GetCertificate)
			r.Get("/certificates/{id}/verify", s.VerifyCertificate)
			r.Post("/certificates/batch-verify", s.BatchVerifyCertificates)
			r.Get("/recipients/{address}/certificates", s.GetRecipientCertificates)
			r.Get("/contract", s.GetContract)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(basicAuthRealm, map[string]string{
				s.cfg.HTTPBasicAuth.User: s.cfg.HTTPBasicAuth.Password,
			}))
			r.Use(validator)
			r.Post("/certificates", s.IssueCertificate)
			r.Post("/certificates/{id}/renew", s.RenewCertificate)
			r.Post("/certificates/{id}/revoke", s.RevokeCertificate)
			r.Post("/certificates/{id}/approve", s.ApproveCertificate)
			r.Post("/certificates/{id}/reject", s.RejectCertificate)
		})
	})
	return mux, nil
}

// Health reports whether the storage dependencies answer
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]bool{}
	if s.health != nil {
		status = s.health.Status(r.Context())
	}
	writeJSON(w, r, http.StatusOK, status)
}
