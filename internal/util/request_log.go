package util

import (
	"net/http"
	"strings"
	"time"
)

// LoggingTransport emits a structured log for each outgoing HTTP request.
// It includes request_id so client logs can be matched with backend logs.
type LoggingTransport struct {
	Base    http.RoundTripper
	Service string
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	service := strings.TrimSpace(t.Service)
	if service == "" {
		service = "unknown"
	}
	start := time.Now()
	resp, err := base(t.Base).RoundTrip(req)
	logger := LoggerFromContext(req.Context())
	if err != nil {
		logger.Warn(
			"http_request_failed",
			"service", service,
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromRequest(req),
			"err", err,
		)
		return nil, err
	}
	logger.Debug(
		"http_request",
		"service", service,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestIDFromRequest(req),
	)
	return resp, nil
}

// NewTransport chains request id stamping and request logging over base.
func NewTransport(service string, rt http.RoundTripper) http.RoundTripper {
	return &RequestIDTransport{Base: &LoggingTransport{Base: rt, Service: service}}
}
