package constraint

import (
	"strconv"
	"strings"
)

// Violation codes.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeBlank         = "blank"
	CodeNull          = "null"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidFormat = "invalid_format"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeMultipleOf    = "multiple_of"
	CodeTooFew        = "too_few"
	CodeTooMany       = "too_many"
	CodeDuplicate     = "duplicate"
	CodeInvalidEnum   = "invalid_enum"
)

// Violation is one failed check. Path is relative to the checked value:
// empty for the value itself, "[2]" for an item, "[2].name" below it.
type Violation struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// Error implements error.
func (v Violation) Error() string {
	if v.Path == "" {
		return v.Code + ": " + v.Message
	}
	return v.Path + ": " + v.Message
}

// Under returns v with its path nested below prefix.
func (v Violation) Under(prefix string) Violation {
	v.Path = JoinPath(prefix, v.Path)
	return v
}

// JoinPath joins a property path and a relative path. Index segments attach
// without a dot.
// Example: JoinPath("items", "[2].name") -> "items[2].name"
func JoinPath(prefix, rel string) string {
	switch {
	case prefix == "":
		return rel
	case rel == "":
		return prefix
	case strings.HasPrefix(rel, "["):
		return prefix + rel
	}
	return prefix + "." + rel
}

// Index returns the path segment of item i.
func Index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func violation(code, message string, params map[string]any) []Violation {
	return []Violation{{Code: code, Message: message, Params: params}}
}
