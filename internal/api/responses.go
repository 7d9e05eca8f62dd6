// Package api defines shared HTTP response envelopes used across handlers.
package api

// ErrorResponse is the common error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
