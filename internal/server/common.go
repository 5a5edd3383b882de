// Package server provides shared middleware for the HTTP API.
package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/FocuswithJustin/scriptref/internal/logging"
)

// AbsPath returns the absolute path of a file, or the original path if it fails.
func AbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string // List of allowed origins, empty = allow all (*)
}

// CORSMiddlewareWithConfig adds CORS headers to responses with configurable origins.
// If AllowedOrigins is empty, it defaults to "*" (allow all origins).
// If AllowedOrigins contains specific origins, it validates the request Origin header.
func CORSMiddlewareWithConfig(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := "*"
		if len(cfg.AllowedOrigins) > 0 {
			allowed := false
			for _, allowedOrig := range cfg.AllowedOrigins {
				if origin == allowedOrig {
					allowed = true
					allowedOrigin = origin
					break
				}
			}
			if !allowed {
				// No CORS headers; the browser blocks the response.
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if allowedOrigin != "*" {
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TimingMiddleware warns about requests slower than threshold.
func TimingMiddleware(threshold time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if d := time.Since(start); d > threshold {
			logging.WarnContext(r.Context(), "slow_request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", d.Milliseconds())
		}
	})
}
