package testutil

import (
	"net/http"

	"nipcheck/pkg/requestcontext"
)

// WithClientIP sets the client IP the way metadata.ClientMetadata would.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}

// WithRequestID sets the request ID the way the RequestID middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
