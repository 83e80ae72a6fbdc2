package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

//go:embed openapi.yaml
var openAPISpec []byte

// LoadDocument parses and validates the embedded OpenAPI document
func LoadDocument(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// RegisterStatic serves the API document
func RegisterStatic(mux chi.Router) {
	mux.Get("/static/docs/api/api.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openAPISpec)
	})
}

// RequestValidator rejects requests whose parameters or body do not match the API document.
// Requests on routes the document does not describe are passed through.
func RequestValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				log.Warn(r.Context(), "openapi route lookup", "err", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			})
			if err != nil {
				log.Debug(r.Context(), "invalid request", "err", err, "operation", route.Operation.OperationID)
				writeJSON(w, r, http.StatusBadRequest, GenericMessage{Message: requestErrorMessage(err)})
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// requestErrorMessage keeps the short reason of a validation failure
func requestErrorMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return "invalid parameter " + reqErr.Parameter.Name + ": " + reqErr.Reason
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			return "invalid request body: " + schemaErr.Reason
		}
		if reqErr.Reason != "" {
			return "invalid request: " + reqErr.Reason
		}
	}
	return err.Error()
}
