package validate

import (
	"net/http"

	"github.com/erraggy/dtoapi/meta"
)

// Defaults of the validation error body.
const (
	ValidationErrorType  = "Validation error"
	ValidationErrorTitle = "Invalid request body."
)

// ErrorResponse is the body of an unexpected server failure.
type ErrorResponse struct {
	_       struct{} `dto:"name=error,description=Standardized response for server errors"`
	Message *string  `json:"message" dto:"nullable,description=Error message,example=Something went wrong"`
}

// ViolationItem is one failed rule in a ValidationErrorResponse.
type ViolationItem struct {
	_        struct{} `dto:"name=Violation,description=Violation schema"`
	Property string   `json:"property" dto:"required,description=Path of the property that failed validation,example=age"`
	Message  string   `json:"message" dto:"required,description=Human readable message,example=This value should be less than or equal to 100."`
	Code     string   `json:"code,omitempty" dto:"description=Machine readable violation code,example=too_big"`
}

// ValidationErrorResponse is the body returned when a request payload
// violates its type's rules.
type ValidationErrorResponse struct {
	_          struct{}        `dto:"name=validation_error,description=Standardized response for validation errors"`
	Type       string          `json:"type" dto:"required,default=Validation error"`
	Title      string          `json:"title" dto:"required,default=Invalid request body."`
	Status     int             `json:"status" dto:"required,default=422"`
	Violations []ViolationItem `json:"violations" dto:"required"`
}

// Response converts the violations into a validation error body. The
// violations list is empty, never nil, when vs is.
func (vs Violations) Response() ValidationErrorResponse {
	items := make([]ViolationItem, len(vs))
	for i, v := range vs {
		items[i] = ViolationItem{Property: v.Path, Message: v.Message, Code: v.Code}
	}
	return ValidationErrorResponse{
		Type:       ValidationErrorType,
		Title:      ValidationErrorTitle,
		Status:     http.StatusUnprocessableEntity,
		Violations: items,
	}
}

// NewErrorResponse returns a server error body carrying err's message, or
// a null message when err is nil.
func NewErrorResponse(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{}
	}
	msg := err.Error()
	return ErrorResponse{Message: &msg}
}

// RegisterErrorResponses registers ValidationErrorResponse with a type-level
// 422 response and ErrorResponse with a type-level 500 response. It returns
// the default responses pointing at them, ready to be passed to the
// response resolver.
func RegisterErrorResponses(p *meta.ReflectProvider) (map[int]meta.DefaultResponse, error) {
	validationRef, err := p.RegisterType(ValidationErrorResponse{}, meta.ResponseMeta{
		Status:      http.StatusUnprocessableEntity,
		Description: "Validation error",
	})
	if err != nil {
		return nil, err
	}
	errorRef, err := p.RegisterType(ErrorResponse{}, meta.ResponseMeta{
		Status:      http.StatusInternalServerError,
		Description: "Internal server error",
	})
	if err != nil {
		return nil, err
	}
	return map[int]meta.DefaultResponse{
		http.StatusUnprocessableEntity: {Payload: validationRef, Description: "Validation error"},
		http.StatusInternalServerError: {Payload: errorRef, Description: "Internal server error"},
	}, nil
}
