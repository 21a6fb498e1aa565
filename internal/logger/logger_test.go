package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskCookie(t *testing.T) {
	got := MaskCookie("session=abcdef1234; flash=ok")
	want := "session=****1234; flash=****"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskForm(t *testing.T) {
	got := MaskForm(map[string][]string{
		"username":         {"admin"},
		"password":         {"hunter2"},
		"confirm_password": {"hunter2"},
	})
	if got["username"] != "admin" {
		t.Fatalf("username masked: %q", got["username"])
	}
	if got["password"] != "****ter2" || got["confirm_password"] != "****ter2" {
		t.Fatalf("password not masked: %v", got)
	}
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var scoped *zap.Logger
	h := Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", "Bearer secret-token-9999")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	rid := rr.Header().Get(RequestIDHeader)
	if rid == "" {
		t.Fatal("missing request id header")
	}
	if scoped == nil || scoped == zap.L() {
		t.Fatal("handler did not receive a request scoped logger")
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != rid {
		t.Fatalf("request_id = %v, want %s", fields["request_id"], rid)
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("status = %v", fields["status"])
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("level = %s, want warn", entries[0].Level)
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	h := Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("request id = %q, want abc", got)
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != zap.L() {
		t.Fatal("expected global logger")
	}
}
