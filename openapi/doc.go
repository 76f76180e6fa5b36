// Package openapi assembles OpenAPI 3.1 documents from dtoapi metadata.
//
// The caller supplies routing (method, path and operation ref per route);
// everything else is derived. Operation documentation comes from the
// metadata provider, responses from the response resolver, and payload
// schemas from the schema registry, whose export becomes
// components.schemas:
//
//	b := openapi.New(provider, registry, resolver, "Users API", "1.0.0")
//	b.AddRoute(http.MethodGet, "/users/{id}", "users.get")
//	doc, err := b.Build()
//	if err != nil {
//		return err
//	}
//	h, err := openapi.Handler(doc)
//
// Handler serves the rendered document over HTTP using chi.
package openapi
