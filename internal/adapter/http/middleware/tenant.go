package middleware

import (
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/ledgercore/internal/domain"
)

// TenantHeader carries the calling tenant on every API request.
const TenantHeader = "X-Tenant-ID"

// Tenant rejects requests without a tenant header and places the tenant on
// the request context.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenantID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing "+TenantHeader+" header")
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithTenant(r.Context(), tenantID)))
	})
}

// RequestID copies the id assigned by chi's RequestID middleware onto the
// domain context and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimw.GetReqID(r.Context())
		if id != "" {
			w.Header().Set(chimw.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r.WithContext(domain.WithRequestID(r.Context(), id)))
	}))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
