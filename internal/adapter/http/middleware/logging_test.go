package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggingMiddlewareAttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	handler := RequestID(Tenant(NewLoggingMiddleware(base).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusAccepted)
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", nil)
	req.Header.Set(TenantHeader, "acme")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	var inner, done map[string]any
	if err := json.Unmarshal(lines[0], &inner); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(lines[1], &done); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if inner["tenant_id"] != "acme" || inner["request_id"] == nil {
		t.Fatalf("expected tenant and request id on handler log, got %v", inner)
	}
	if done["status"] != float64(http.StatusAccepted) || done["message"] != "request completed" {
		t.Fatalf("unexpected completion log %v", done)
	}
}
