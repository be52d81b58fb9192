package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// ProblemDetails Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{Status: http.StatusNotFound, Title: "Not Found", Detail: "badge not found"}

	assert.Equal(t, "[404] Not Found: badge not found", pd.Error())
}

func TestProblemDetails_WriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewInvariantError("badge already awarded").WriteJSON(rec)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body ProblemDetails
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrCodeInvariantViolation, body.Code)
	assert.Equal(t, "badge already awarded", body.Detail)
	assert.Contains(t, body.Type, "invariant-violation")
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestConstructors_StatusAndCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		code   ErrorCode
	}{
		{"unauthorized", NewUnauthorizedError("missing key"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"not found", NewNotFoundError("challenge"), http.StatusNotFound, ErrCodeNotFound},
		{"conflict", NewConflictError("stale"), http.StatusConflict, ErrCodeConflict},
		{"invariant", NewInvariantError("re-claim"), http.StatusConflict, ErrCodeInvariantViolation},
		{"insufficient", NewInsufficientPointsError(100, 40), http.StatusUnprocessableEntity, ErrCodeInsufficientPoints},
		{"challenge", NewChallengeStateError("expired"), http.StatusUnprocessableEntity, ErrCodeChallengeState},
		{"catalog", NewCatalogError("unknown metric"), http.StatusUnprocessableEntity, ErrCodeCatalog},
		{"internal", NewInternalError(""), http.StatusInternalServerError, ErrCodeInternal},
		{"bad request", NewBadRequestError("bad json"), http.StatusBadRequest, ErrCodeInvalidInput},
		{"rate limited", NewRateLimitError(3), http.StatusTooManyRequests, ErrCodeRateLimited},
		{"unavailable", NewUnavailableError("leaderboard unavailable"), http.StatusServiceUnavailable, ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.pd.Status)
			assert.Equal(t, tt.code, tt.pd.Code)
			assert.NotEmpty(t, tt.pd.Title)
		})
	}
}

func TestNewNotFoundError_FormatsResourceName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "reward not found", NewNotFoundError("reward").Detail)
}

func TestNewInsufficientPointsError_Detail(t *testing.T) {
	t.Parallel()

	pd := NewInsufficientPointsError(100, 40)

	assert.Equal(t, "100 points required, 40 available", pd.Detail)
	require.NotNil(t, pd.Required)
	require.NotNil(t, pd.Available)
	assert.Equal(t, int64(100), *pd.Required)
	assert.Equal(t, int64(40), *pd.Available)
}

func TestNewValidationError_MultipleFields_SummarizesCount(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "type", Message: "is required"},
		{Field: "user_id", Message: "is required"},
		{Field: "id", Message: "is required"},
	})

	assert.Equal(t, "type: is required (and 2 more errors)", pd.Detail)
	assert.Len(t, pd.Errors, 3)
}

func TestNewValidationError_Empty_UsesDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "One or more fields failed validation", NewValidationError(nil).Detail)
}

func TestNewLimitExceededError_SetsExtensions(t *testing.T) {
	t.Parallel()

	pd := NewLimitExceededError("redemptions", 1, 1)

	require.NotNil(t, pd.Limit)
	require.NotNil(t, pd.Current)
	assert.Equal(t, 1, *pd.Limit)
	assert.Equal(t, "Maximum of 1 redemptions reached", pd.Detail)
}

func TestNewInternalError_DefaultDetail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "An unexpected error occurred", NewInternalError("").Detail)
}

// ============================================================================
// Error Code Tests
// ============================================================================

func TestErrorCodes_CorrectRanges(t *testing.T) {
	t.Parallel()

	ranges := map[ErrorCode][2]int{
		ErrCodeUnauthorized:       {1000, 1999},
		ErrCodeNotFound:           {3000, 3999},
		ErrCodeConflict:           {3000, 3999},
		ErrCodeValidation:         {4000, 4999},
		ErrCodeInvalidInput:       {4000, 4999},
		ErrCodeLimitExceeded:      {4000, 4999},
		ErrCodeRateLimited:        {4000, 4999},
		ErrCodeInternal:           {5000, 5999},
		ErrCodeDatabase:           {5000, 5999},
		ErrCodeUnavailable:        {5000, 5999},
		ErrCodeInvariantViolation: {6000, 6999},
		ErrCodeInsufficientPoints: {6000, 6999},
		ErrCodeChallengeState:     {6000, 6999},
		ErrCodeCatalog:            {6000, 6999},
	}
	for code, r := range ranges {
		assert.GreaterOrEqual(t, int(code), r[0])
		assert.LessOrEqual(t, int(code), r[1])
	}
}

func TestProblemDetails_JSON_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewConflictError("stale version"))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "errors")
	assert.NotContains(t, raw, "limit")
	assert.NotContains(t, raw, "instance")
	assert.NotContains(t, raw, "required")
	assert.NotContains(t, raw, "retry_after")
}
