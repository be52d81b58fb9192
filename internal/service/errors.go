package service

import "errors"

// Centralized service layer errors.
// Engine errors (internal/engine/errors.go) pass through wrapped with %w, so
// handlers match both sets with errors.Is.

// ===== Progression Errors =====
var (
	ErrConcurrentUpdate = errors.New("progression changed concurrently, retry the request")
)

// ===== Challenge Errors =====
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrTeamsDisabled     = errors.New("team challenges are not configured")
)

// ===== Catalog Errors =====
var (
	ErrBadgeExists = errors.New("badge id already exists")
)

// ===== Leaderboard Errors =====
var (
	ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")
)
