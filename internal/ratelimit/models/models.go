package models

import "time"

// EndpointClass groups routes that share a rate limit budget.
type EndpointClass string

const (
	// ClassGuess covers the wildcard search endpoints (up to 1000 checksum
	// evaluations per request).
	ClassGuess EndpointClass = "guess"
)

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}
