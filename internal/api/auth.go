package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/FocuswithJustin/scriptref/internal/logging"
)

// minAPIKeyLength is the shortest API key accepted.
const minAPIKeyLength = 16

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// Validate checks that an enabled configuration carries a usable key.
func (cfg AuthConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required when authentication is enabled")
	}
	if len(cfg.APIKey) < minAPIKeyLength {
		return fmt.Errorf("API key must be at least %d characters (got %d)", minAPIKeyLength, len(cfg.APIKey))
	}
	return nil
}

// AuthMiddleware requires a matching X-API-Key header when enabled. The
// root and health endpoints stay public. WebSocket clients that cannot set
// headers may pass the key as the api_key query parameter.
func AuthMiddleware(cfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled || isPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" && r.URL.Path == "/ws" {
			key = r.URL.Query().Get("api_key")
		}
		if key == "" {
			logging.SecurityEvent("unauthorized_request", "auth", "path", r.URL.Path, "reason", "missing API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
			logging.SecurityEvent("unauthorized_request", "auth", "path", r.URL.Path, "reason", "invalid API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPublicEndpoint(path string) bool {
	return path == "/" || path == "/health"
}
