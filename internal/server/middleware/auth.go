package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// kindUnauthorized has no domain.Kind; auth failures never leave this package.
const kindUnauthorized = "unauthorized"

// Auth checks the API key on every request except OPTIONS preflights and
// the listed public paths. An empty apiKey disables the check.
func Auth(apiKey string, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || open[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			switch token := extractToken(r); {
			case token == "":
				w.Header().Set("WWW-Authenticate", `Bearer realm="impactsim"`)
				writeJSONError(w, http.StatusUnauthorized, "missing authentication token", kindUnauthorized)
			case subtle.ConstantTimeCompare([]byte(token), want) != 1:
				writeJSONError(w, http.StatusUnauthorized, "invalid authentication token", kindUnauthorized)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// extractToken reads a Bearer token, then X-API-Key, then for websocket
// upgrades the api_key query value (browsers cannot set headers there).
func extractToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("api_key")
	}
	return ""
}

// writeJSONError writes the same {error, kind} body the handlers use.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}{msg, kind})
}
