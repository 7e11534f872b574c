package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware validates bearer tokens and enforces the route policy.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap applies authentication and role checks to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.Policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ParseJWT(tokenFromRequest(r), m.Secret)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="waterhealth"`)
			deny(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		role, _ := NormalizeRole(claims.Role)
		if !RoleAtLeast(role, required) {
			deny(w, http.StatusForbidden, "role "+string(required)+" required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), role, claims.Subject)))
	})
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// tokenFromRequest reads the Authorization header. Browsers cannot set headers
// on an EventSource, so GET requests may pass access_token instead.
func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := extractBearer(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func extractBearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
