package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAbsPath(t *testing.T) {
	got := AbsPath("kjv.txt")
	if !filepath.IsAbs(got) {
		t.Errorf("AbsPath() = %q, want absolute path", got)
	}
	if !strings.HasSuffix(got, "kjv.txt") {
		t.Errorf("AbsPath() = %q, want suffix kjv.txt", got)
	}
}

func TestCORSMiddlewareWithConfig(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
		wantVary   bool
	}{
		{"allow all", nil, "https://a.example", http.MethodGet, http.StatusOK, "*", false},
		{"allowed origin", []string{"https://a.example"}, "https://a.example", http.MethodGet, http.StatusOK, "https://a.example", true},
		{"preflight", []string{"https://a.example"}, "https://a.example", http.MethodOptions, http.StatusOK, "https://a.example", true},
		{"blocked origin", []string{"https://a.example"}, "https://evil.example", http.MethodGet, http.StatusOK, "", false},
		{"blocked preflight", []string{"https://a.example"}, "https://evil.example", http.MethodOptions, http.StatusForbidden, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSMiddlewareWithConfig(CORSConfig{AllowedOrigins: tt.allowed}, okHandler())
			req := httptest.NewRequest(tt.method, "/parse", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tt.wantVary {
				t.Errorf("Vary: Origin present = %v, want %v", got, tt.wantVary)
			}
		})
	}
}

func TestTimingMiddleware(t *testing.T) {
	called := false
	handler := TimingMiddleware(time.Hour, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("TimingMiddleware did not call the next handler")
	}
}

func TestBuildCSPHeader(t *testing.T) {
	got := APICSPConfig().BuildCSPHeader()
	want := "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"
	if got != want {
		t.Errorf("BuildCSPHeader() = %q, want %q", got, want)
	}

	cfg := CSPConfig{DefaultSrc: []string{"'self'"}, ConnectSrc: []string{"'self'", "wss:"}}
	if got := cfg.BuildCSPHeader(); got != "default-src 'self'; connect-src 'self' wss:" {
		t.Errorf("BuildCSPHeader() = %q", got)
	}

	if got := (CSPConfig{}).BuildCSPHeader(); got != "" {
		t.Errorf("empty BuildCSPHeader() = %q, want empty", got)
	}
}

func TestSecurityHeadersWithCSP(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersWithCSP(APICSPConfig(), okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": APICSPConfig().BuildCSPHeader(),
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestValidateContentType(t *testing.T) {
	allowed := []string{"application/json"}
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"text/plain", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := ValidateContentType(tt.contentType, allowed); got != tt.want {
				t.Errorf("ValidateContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}
