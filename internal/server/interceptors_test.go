package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// stubHandler is a no-op gRPC handler used in interceptor tests.
func stubHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	resp, err := LoggingInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, stubHandler)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp != "ok" {
		t.Fatalf("expected 'ok', got %v", resp)
	}
}

func TestRecoveryInterceptor_Panic(t *testing.T) {
	panicking := func(context.Context, any) (any, error) { panic("boom") }
	_, err := RecoveryInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, panicking)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestStreamInterceptors(t *testing.T) {
	info := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch", IsServerStream: true}

	called := false
	ok := func(any, grpc.ServerStream) error { called = true; return nil }
	if err := StreamLoggingInterceptor(nil, nil, info, ok); err != nil || !called {
		t.Fatalf("expected pass-through, err=%v called=%v", err, called)
	}

	failing := func(any, grpc.ServerStream) error { return status.Error(codes.Unavailable, "draining") }
	if err := StreamLoggingInterceptor(nil, nil, info, failing); status.Code(err) != codes.Unavailable {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}

	panicking := func(any, grpc.ServerStream) error { panic("boom") }
	if err := StreamRecoveryInterceptor(nil, nil, info, panicking); status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated ID echoed, handler saw %q, response %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "caller-id" || rec.Header().Get(RequestIDHeader) != "caller-id" {
		t.Fatalf("expected caller ID preserved, got %q", seen)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(slog.Default(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	requireStatus(t, rec, http.StatusInternalServerError)
	if rec.Body.String() != "{\"error\":\"internal server error\"}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestLoggingMiddleware_RecordsStatusAndFlushes(t *testing.T) {
	var flushable bool
	handler := LoggingMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	requireStatus(t, rec, http.StatusTeapot)
	if !flushable {
		t.Fatal("expected wrapped writer to implement http.Flusher")
	}
}

func TestStatusRecorder_Code(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		want  int
	}{
		{"nothing", func(http.ResponseWriter) {}, http.StatusOK},
		{"body only", func(w http.ResponseWriter) { _, _ = w.Write([]byte("x")) }, http.StatusOK},
		{"explicit", func(w http.ResponseWriter) { w.WriteHeader(http.StatusNotFound) }, http.StatusNotFound},
		{"first wins", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusCreated)
			w.WriteHeader(http.StatusInternalServerError)
		}, http.StatusCreated},
	}
	for _, tt := range tests {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
		tt.write(rec)
		if got := rec.code(); got != tt.want {
			t.Errorf("%s: code = %d, want %d", tt.name, got, tt.want)
		}
	}
}
