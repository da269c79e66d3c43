package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(m).Wrap)
	r.Get("/api/v1/loans/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/01HX3Z9Q8W", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/loans/{id}", "418")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected counter to be 1, got %v", got)
	}
}

func TestMetricsMiddlewareUnroutedPath(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	handler := NewMetricsMiddleware(m).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/health", nil))

	counter := m.HTTPRequests.WithLabelValues(http.MethodPost, "/health", "201")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected counter to be 1, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "loan path without suffix",
			input:    "/api/v1/loans/01HX3Z9Q8W",
			expected: "/api/v1/loans/{id}",
		},
		{
			name:     "loan path with suffix",
			input:    "/api/v1/loans/01HX3Z9Q8W/payments",
			expected: "/api/v1/loans/{id}/payments",
		},
		{
			name:     "named sub-resource",
			input:    "/api/v1/statements/trial-balance",
			expected: "/api/v1/statements/trial-balance",
		},
		{
			name:     "version segment is kept",
			input:    "/api/v1/health",
			expected: "/api/v1/health",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
