package models

// RateLimitExceededResponse is the API response when rate limit is exceeded.
// It shares the {code, message} shape of every other API error.
type RateLimitExceededResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}
