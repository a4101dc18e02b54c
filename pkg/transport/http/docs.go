package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yaml
var openAPISpec []byte

// APIDocsPath is where the OpenAPI document is served.
const APIDocsPath = "/v3/api-docs"

// SwaggerUIPath is the prefix the Swagger UI is served under.
const SwaggerUIPath = "/swagger-ui/"

// LoadAPIDocs parses and validates the embedded OpenAPI document. The
// servers entry is rewritten to basePath so the document matches the
// mounted routes.
func LoadAPIDocs(ctx context.Context, basePath string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("loading openapi document: %w", err)
	}
	if basePath != "" {
		doc.Servers = openapi3.Servers{{URL: basePath}}
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating openapi document: %w", err)
	}
	return doc, nil
}

// apiDocsHandler serves doc as JSON. The document is encoded once.
func apiDocsHandler(doc *openapi3.T) (http.Handler, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding openapi document: %w", err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}), nil
}

// swaggerUIHandler serves the Swagger UI pointed at the API docs route.
func swaggerUIHandler() http.Handler {
	return httpSwagger.Handler(httpSwagger.URL(APIDocsPath))
}
