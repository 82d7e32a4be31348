package githubapi

import (
	"fmt"
	"time"
)

const (
	networkErrorTemplateConstant           = "GitHub API unreachable during %s: %s"
	rateLimitErrorTemplateConstant         = "GitHub API rate limit exceeded during %s; supply a token or wait"
	rateLimitWithWaitErrorTemplateConstant = "GitHub API rate limit exceeded during %s; retry after %d seconds or supply a token"
	authErrorTemplateConstant              = "GitHub API rejected credentials during %s (HTTP %d): %s"
	apiErrorTemplateConstant               = "GitHub API error during %s (HTTP %d): %s"
	invalidInputErrorTemplateConstant      = "%s: %s"
)

// OperationName describes a named GitHub API workflow supported by the client.
type OperationName string

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// NetworkError reports that the API could not be reached.
type NetworkError struct {
	Operation OperationName
	Cause     error
}

// Error describes the transport failure.
func (networkError NetworkError) Error() string {
	return fmt.Sprintf(networkErrorTemplateConstant, networkError.Operation, networkError.Cause)
}

// Unwrap exposes the transport error.
func (networkError NetworkError) Unwrap() error {
	return networkError.Cause
}

// RateLimitError reports an exhausted request quota. ResetAt is zero when the API did not say.
type RateLimitError struct {
	Operation  OperationName
	StatusCode int
	ResetAt    time.Time
	RetryAfter time.Duration
	Cause      error
}

// Error tells the operator to wait or supply a token.
func (rateLimitError RateLimitError) Error() string {
	if rateLimitError.RetryAfter > 0 {
		waitSeconds := int64((rateLimitError.RetryAfter + time.Second - 1) / time.Second)
		return fmt.Sprintf(rateLimitWithWaitErrorTemplateConstant, rateLimitError.Operation, waitSeconds)
	}
	return fmt.Sprintf(rateLimitErrorTemplateConstant, rateLimitError.Operation)
}

// Unwrap exposes the go-github error.
func (rateLimitError RateLimitError) Unwrap() error {
	return rateLimitError.Cause
}

// AuthError reports a missing, invalid, or insufficient token.
type AuthError struct {
	Operation  OperationName
	StatusCode int
	Message    string
	Cause      error
}

// Error describes the rejected credentials.
func (authError AuthError) Error() string {
	return fmt.Sprintf(authErrorTemplateConstant, authError.Operation, authError.StatusCode, authError.Message)
}

// Unwrap exposes the go-github error.
func (authError AuthError) Unwrap() error {
	return authError.Cause
}

// APIError reports any other unsuccessful response.
type APIError struct {
	Operation  OperationName
	StatusCode int
	Message    string
	Cause      error
}

// Error surfaces the HTTP status and a terse message.
func (apiError APIError) Error() string {
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.Operation, apiError.StatusCode, apiError.Message)
}

// Unwrap exposes the underlying error.
func (apiError APIError) Unwrap() error {
	return apiError.Cause
}
