package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDTransportPropagatesContextID(t *testing.T) {
	const incoming = "req-incoming-123"
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport("test", nil)}
	ctx := WithRequestID(context.Background(), incoming)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/healthz", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if got != incoming {
		t.Fatalf("unexpected request id header: got %q want %q", got, incoming)
	}
}

func TestRequestIDTransportGeneratesWhenMissing(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport("test", nil)}
	resp, err := client.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if got == "" {
		t.Fatal("expected generated request id header")
	}
}

func TestWithRequestIDStoresLogger(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) == "" {
		t.Fatal("expected generated request id in context")
	}
	if LoggerFromContext(ctx) == nil {
		t.Fatal("expected logger in context")
	}
}
