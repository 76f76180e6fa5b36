// Package httputil provides HTTP method, status and media type checks used
// when assembling API description documents.
package httputil

import (
	"mime"
	"slices"
	"strings"
)

// HTTP status code bounds.
const (
	MinStatusCode = 100
	MaxStatusCode = 599
)

// HTTP method names as they appear in path items.
const (
	MethodGet     = "get"
	MethodPut     = "put"
	MethodPost    = "post"
	MethodDelete  = "delete"
	MethodOptions = "options"
	MethodHead    = "head"
	MethodPatch   = "patch"
	MethodTrace   = "trace"
)

// Methods lists the path item methods in document order.
var Methods = []string{
	MethodGet, MethodPut, MethodPost, MethodDelete,
	MethodOptions, MethodHead, MethodPatch, MethodTrace,
}

// NormalizeMethod lowercases method and reports whether it names a path
// item operation.
func NormalizeMethod(method string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(method))
	return m, slices.Contains(Methods, m)
}

// ValidStatusCode reports whether code is within 100-599.
func ValidStatusCode(code int) bool {
	return code >= MinStatusCode && code <= MaxStatusCode
}

// IsValidMediaType validates a media type according to RFC 2045/2046.
// Wildcards are accepted as */* and type/*, never */subtype.
func IsValidMediaType(mediaType string) bool {
	if mediaType == "*/*" {
		return true
	}
	if strings.HasPrefix(mediaType, "*/") {
		return false
	}
	if typ, ok := strings.CutSuffix(mediaType, "/*"); ok {
		return typ != "" && typ != "*" && !strings.Contains(typ, "/")
	}
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	typ, sub, ok := strings.Cut(parsed, "/")
	return ok && typ != "" && sub != "" && !strings.Contains(sub, "/")
}
