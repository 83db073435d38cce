// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// MaxQty is set on stock rejections so the storefront can clamp its input.
type APIError struct {
	Error  string `json:"error"`
	MaxQty *int   `json:"max_qty,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Error: msg}
}

// WithMaxQty builds a stock rejection envelope.
func WithMaxQty(msg string, maxQty int) *APIError {
	return &APIError{Error: msg, MaxQty: &maxQty}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Error: "Validation failed", Fields: fields}
}
