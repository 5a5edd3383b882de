package server

import (
	"net/http"
	"strings"
)

// CSPConfig holds Content-Security-Policy configuration.
type CSPConfig struct {
	// DefaultSrc specifies default source for all directives
	DefaultSrc []string
	// ConnectSrc specifies valid sources for fetch, XMLHttpRequest, WebSocket
	ConnectSrc []string
	// FrameAncestors specifies valid parents that may embed the page
	FrameAncestors []string
	// BaseURI restricts URLs that can be used in <base> element
	BaseURI []string
	// FormAction restricts URLs that can be used as form action targets
	FormAction []string
}

// APICSPConfig returns a strict CSP configuration for REST API endpoints.
// The API serves only JSON, so nothing may be loaded.
func APICSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:     []string{"'none'"},
		FrameAncestors: []string{"'none'"},
		BaseURI:        []string{"'none'"},
		FormAction:     []string{"'none'"},
	}
}

// BuildCSPHeader builds a Content-Security-Policy header value from config.
func (cfg CSPConfig) BuildCSPHeader() string {
	var directives []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}
	add("default-src", cfg.DefaultSrc)
	add("connect-src", cfg.ConnectSrc)
	add("frame-ancestors", cfg.FrameAncestors)
	add("base-uri", cfg.BaseURI)
	add("form-action", cfg.FormAction)
	return strings.Join(directives, "; ")
}

// SecurityHeadersWithCSP adds the standard security headers and a CSP.
func SecurityHeadersWithCSP(cfg CSPConfig, next http.Handler) http.Handler {
	cspHeader := cfg.BuildCSPHeader()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if cspHeader != "" {
			w.Header().Set("Content-Security-Policy", cspHeader)
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateContentType checks if a Content-Type header is in the allowed list.
func ValidateContentType(contentType string, allowed []string) bool {
	parts := strings.Split(contentType, ";")
	mediaType := strings.TrimSpace(parts[0])

	for _, allowedType := range allowed {
		if strings.EqualFold(mediaType, allowedType) {
			return true
		}
	}

	return false
}
