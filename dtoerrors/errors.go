// Package dtoerrors provides structured error types for dtoapi.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish a caller-supplied contract
// violation (an unknown payload type, a payload type that cannot be turned into
// a schema, a schema name collision) from configuration mistakes.
//
// Most conditions the contract engine encounters are not errors at all: an
// unresolvable type reference found while merging response tiers, a value the
// normalizer cannot stringify or a malformed ad hoc rule declaration are
// skipped and the caller observes a smaller result. The types in this package
// are reserved for the few places where a hard failure is the only honest answer.
//
// # Usage with errors.Is
//
//	doc, err := factory.Build(ref)
//	if errors.Is(err, dtoerrors.ErrUnknownType) {
//	    // the provider has never heard of ref
//	}
//
//	var derr *dtoerrors.DerivationError
//	if errors.As(err, &derr) {
//	    fmt.Println(derr.Type, derr.Step)
//	}
package dtoerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrReference indicates a type or operation reference could not be resolved.
	ErrReference = errors.New("reference error")

	// ErrUnknownType indicates the metadata provider does not know a type reference.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownOperation indicates the metadata provider does not know an operation reference.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrDerivation indicates a schema or rule set could not be derived for a type.
	ErrDerivation = errors.New("derivation error")

	// ErrNameCollision indicates two distinct types were given the same schema name.
	ErrNameCollision = errors.New("schema name collision")

	// ErrConfig indicates an invalid configuration or declaration.
	ErrConfig = errors.New("configuration error")
)

// ReferenceKind identifies what a ReferenceError failed to resolve.
type ReferenceKind string

const (
	// ReferenceType is a payload type reference.
	ReferenceType ReferenceKind = "type"
	// ReferenceOperation is an operation reference.
	ReferenceOperation ReferenceKind = "operation"
)

// ReferenceError represents a failure to resolve a type or operation reference.
type ReferenceError struct {
	// Kind is what was being resolved.
	Kind ReferenceKind
	// Ref is the reference that failed to resolve.
	Ref string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	switch e.Kind {
	case ReferenceType:
		msg = "unknown type"
	case ReferenceOperation:
		msg = "unknown operation"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrUnknownType or ErrUnknownOperation
// depending on Kind.
func (e *ReferenceError) Is(target error) bool {
	switch target {
	case ErrReference:
		return true
	case ErrUnknownType:
		return e.Kind == ReferenceType
	case ErrUnknownOperation:
		return e.Kind == ReferenceOperation
	}
	return false
}

// NewUnknownTypeError creates a ReferenceError for an unknown type reference.
func NewUnknownTypeError(ref string) *ReferenceError {
	return &ReferenceError{Kind: ReferenceType, Ref: ref}
}

// NewUnknownOperationError creates a ReferenceError for an unknown operation reference.
func NewUnknownOperationError(ref string) *ReferenceError {
	return &ReferenceError{Kind: ReferenceOperation, Ref: ref}
}

// Derivation steps reported by DerivationError.
const (
	StepDescribe = "describe"
	StepShape    = "shape"
	StepNaming   = "naming"
	StepRules    = "rules"
)

// DerivationError reports that a declared payload type could not be turned
// into a schema document or a validation profile. It identifies the offending
// type and the derivation step that failed.
type DerivationError struct {
	// Type is the type reference being derived.
	Type string
	// Step is the derivation step that failed (see the Step* constants).
	Step string
	// Message describes the failure.
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *DerivationError) Error() string {
	msg := "derivation error"
	if e.Type != "" {
		msg += " for " + e.Type
	}
	if e.Step != "" {
		msg += " (" + e.Step + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *DerivationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *DerivationError) Is(target error) bool {
	return target == ErrDerivation
}

// ConfigError represents an invalid configuration, declaration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Collision is true when the error reports a schema name collision.
	Collision bool
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Collision {
		msg = "schema name collision"
	}
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrConfig, and ErrNameCollision when Collision is set.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfig {
		return true
	}
	return target == ErrNameCollision && e.Collision
}

// NewNameCollisionError creates a ConfigError for two types sharing a schema name.
func NewNameCollisionError(name, existing, incoming string) *ConfigError {
	return &ConfigError{
		Option:    "schema name " + name,
		Message:   fmt.Sprintf("already used by %s, cannot also name %s", existing, incoming),
		Collision: true,
	}
}
