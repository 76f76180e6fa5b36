package openapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Content types of the rendered document.
const (
	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
)

// Handler serves doc at /openapi.json and /openapi.yaml. The document is
// rendered once, so later changes to doc are not reflected.
func Handler(doc *Document) (http.Handler, error) {
	jsonBody, err := doc.JSON()
	if err != nil {
		return nil, err
	}
	yamlBody, err := doc.YAML()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Get("/openapi.json", serve(ContentTypeJSON, jsonBody))
	r.Get("/openapi.yaml", serve(ContentTypeYAML, yamlBody))
	return r, nil
}

func serve(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}
}
