package normalize

import (
	"github.com/goccy/go-json"
)

// Encode renders a normalized tree as JSON.
func Encode(tree any) ([]byte, error) {
	return json.Marshal(tree)
}

// EncodeIndent renders a normalized tree as indented JSON.
func EncodeIndent(tree any) ([]byte, error) {
	return json.MarshalIndent(tree, "", "  ")
}

// NormalizeJSON normalizes value and renders the tree as JSON.
func (n *Normalizer) NormalizeJSON(value any, opts ...Option) ([]byte, error) {
	return Encode(n.Normalize(value, opts...))
}
