package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001

	// Resource errors (3xxx)
	ErrCodeNotFound ErrorCode = 3001
	ErrCodeConflict ErrorCode = 3003

	// Validation errors (4xxx)
	ErrCodeValidation    ErrorCode = 4001
	ErrCodeInvalidInput  ErrorCode = 4002
	ErrCodeLimitExceeded ErrorCode = 4003
	ErrCodeRateLimited   ErrorCode = 4029

	// Internal errors (5xxx)
	ErrCodeInternal    ErrorCode = 5001
	ErrCodeDatabase    ErrorCode = 5002
	ErrCodeUnavailable ErrorCode = 5003

	// Progression errors (6xxx)
	ErrCodeInvariantViolation ErrorCode = 6001
	ErrCodeInsufficientPoints ErrorCode = 6002
	ErrCodeChallengeState     ErrorCode = 6003
	ErrCodeCatalog            ErrorCode = 6004
)

const problemTypeBase = "https://ascend-api.forgo.software/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`

	// Extension members
	Code       ErrorCode `json:"code,omitempty"`
	Limit      *int      `json:"limit,omitempty"`
	Current    *int      `json:"current,omitempty"`
	Required   *int64    `json:"required,omitempty"`
	Available  *int64    `json:"available,omitempty"`
	RetryAfter int       `json:"retry_after,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem as an application/problem+json response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func newProblem(slug, title string, status int, code ErrorCode, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + slug,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// ===== 4xx =====

func NewBadRequestError(detail string) *ProblemDetails {
	return newProblem("bad-request", "Bad Request", http.StatusBadRequest, ErrCodeInvalidInput, detail)
}

func NewUnauthorizedError(detail string) *ProblemDetails {
	return newProblem("unauthorized", "Unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized, detail)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return newProblem("not-found", "Not Found", http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

func NewConflictError(detail string) *ProblemDetails {
	return newProblem("conflict", "Conflict", http.StatusConflict, ErrCodeConflict, detail)
}

// NewValidationError summarizes field errors in Detail and lists them all
// in Errors
func NewValidationError(errs []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	if len(errs) > 0 {
		detail = errs[0].Field + ": " + errs[0].Message
		if len(errs) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errs)-1)
		}
	}
	p := newProblem("validation", "Validation Error", http.StatusUnprocessableEntity, ErrCodeValidation, detail)
	p.Errors = errs
	return p
}

func NewLimitExceededError(resource string, limit, current int) *ProblemDetails {
	p := newProblem("limit-exceeded", "Limit Exceeded", http.StatusUnprocessableEntity, ErrCodeLimitExceeded,
		fmt.Sprintf("Maximum of %d %s reached", limit, resource))
	p.Limit, p.Current = &limit, &current
	return p
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	p := newProblem("rate-limited", "Too Many Requests", http.StatusTooManyRequests, ErrCodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
	p.RetryAfter = retryAfter
	return p
}

// ===== Progression =====

// NewInvariantError reports a rejected state transition that would break a
// progression invariant (double award, re-claim, lifetime decrease)
func NewInvariantError(detail string) *ProblemDetails {
	return newProblem("invariant-violation", "Progression Conflict", http.StatusConflict, ErrCodeInvariantViolation, detail)
}

// NewInsufficientPointsError carries the shortfall as required/available
func NewInsufficientPointsError(required, available int64) *ProblemDetails {
	p := newProblem("insufficient-points", "Insufficient Points", http.StatusUnprocessableEntity, ErrCodeInsufficientPoints,
		fmt.Sprintf("%d points required, %d available", required, available))
	p.Required, p.Available = &required, &available
	return p
}

func NewChallengeStateError(detail string) *ProblemDetails {
	return newProblem("challenge-state", "Challenge Not Claimable", http.StatusUnprocessableEntity, ErrCodeChallengeState, detail)
}

func NewCatalogError(detail string) *ProblemDetails {
	return newProblem("catalog", "Invalid Catalog Entry", http.StatusUnprocessableEntity, ErrCodeCatalog, detail)
}

// ===== 5xx =====

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return newProblem("internal", "Internal Server Error", http.StatusInternalServerError, ErrCodeInternal, detail)
}

// NewUnavailableError reports a dependency that could not serve the request
func NewUnavailableError(detail string) *ProblemDetails {
	return newProblem("unavailable", "Service Unavailable", http.StatusServiceUnavailable, ErrCodeUnavailable, detail)
}
