package response

import (
	"net/http"
	"reflect"

	"github.com/erraggy/dtoapi/meta"
)

// Tier identifies which declaration tier produced a resolved entry.
type Tier int

const (
	// TierMethod entries come from method-level declarations.
	TierMethod Tier = iota
	// TierType entries come from a payload type's own declarations.
	TierType
	// TierDefault entries come from the global defaults.
	TierDefault
	// TierImplicit marks the fallback returned by Select for an empty table.
	TierImplicit
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierMethod:
		return "method"
	case TierType:
		return "type"
	case TierDefault:
		return "default"
	case TierImplicit:
		return "implicit"
	}
	return "unknown"
}

// MarshalText renders the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Resolved is one fully defaulted entry of a response table.
type Resolved struct {
	Status      int          `json:"status"`
	Payload     meta.TypeRef `json:"payload,omitempty"`
	ContentType string       `json:"contentType"`
	Stream      bool         `json:"stream"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Source      Tier         `json:"source"`

	// GoType is the payload's Go type when the provider knows it.
	GoType reflect.Type `json:"-"`
}

// HasBody reports whether the entry declares a payload.
func (r Resolved) HasBody() bool { return r.Payload != "" }

// DescriptionOrDefault returns the description, else the name, else the
// HTTP status text.
func (r Resolved) DescriptionOrDefault() string {
	switch {
	case r.Description != "":
		return r.Description
	case r.Name != "":
		return r.Name
	}
	return http.StatusText(r.Status)
}

// Implicit is the entry selected when a table is empty.
var Implicit = Resolved{Status: http.StatusOK, ContentType: meta.ContentTypeJSON, Source: TierImplicit}

// Table is a resolved response table, sorted ascending by status with at
// most one entry per status.
type Table []Resolved

// Lookup returns the entry for status.
func (t Table) Lookup(status int) (Resolved, bool) {
	for _, r := range t {
		if r.Status == status {
			return r, true
		}
	}
	return Resolved{}, false
}

// Statuses returns the table's status codes in order.
func (t Table) Statuses() []int {
	out := make([]int, len(t))
	for i, r := range t {
		out[i] = r.Status
	}
	return out
}

// Select picks the entry for a concrete result: the first entry whose
// payload type accepts the result's runtime type, else the first entry,
// else Implicit.
func Select(table Table, result any) Resolved {
	if result != nil {
		rt := reflect.TypeOf(result)
		ref := meta.RefOf(result)
		for _, r := range table {
			if r.Payload == "" {
				continue
			}
			if r.GoType != nil {
				if accepts(r.GoType, rt) {
					return r
				}
				continue
			}
			if r.Payload == ref {
				return r
			}
		}
	}
	if len(table) > 0 {
		return table[0]
	}
	return Implicit
}

// accepts reports whether a value of type rt can serve as payload type pt.
// A pointer result also matches its element type.
func accepts(pt, rt reflect.Type) bool {
	if rt.AssignableTo(pt) {
		return true
	}
	if rt.Kind() == reflect.Pointer && rt.Elem().AssignableTo(pt) {
		return true
	}
	return pt.Kind() == reflect.Pointer && rt.AssignableTo(pt.Elem())
}
