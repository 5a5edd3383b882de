package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/scriptref/core/refparse"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s, err := NewServer(refparse.New(nil, nil, refparse.Options{}), cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// do sends a request through the full middleware chain and decodes the envelope.
func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v\n%s", err, rec.Body.String())
	}
	return rec, resp
}

// decodeData re-decodes the envelope data into v.
func decodeData(t *testing.T, data any, v any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func TestHandleRoot(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	rec, resp := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, success = %v", rec.Code, resp.Success)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}
	if data["version"] != Version {
		t.Errorf("version = %v, want %s", data["version"], Version)
	}

	rec, resp = do(t, h, http.MethodGet, "/nonexistent", "")
	if rec.Code != http.StatusNotFound || resp.Success {
		t.Errorf("status = %d, success = %v; want 404 failure", rec.Code, resp.Success)
	}
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	rec, resp := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health HealthInfo
	decodeData(t, resp.Data, &health)
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if health.Table.Books != 66 || health.Table.Verses != 31102 {
		t.Errorf("table = %+v, want KJV totals", health.Table)
	}
	if health.Table.Fingerprint == "" {
		t.Error("fingerprint missing")
	}

	rec, _ = do(t, h, http.MethodPost, "/health", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, want 405", rec.Code)
	}
}

func TestHandleParse(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	tests := []struct {
		name   string
		target string
		want   ParseResult
	}{
		{
			name:   "multi piece",
			target: "/parse?q=" + urlQuery("Jn 3:16; 4:1; Gen 1:1"),
			want: ParseResult{
				Query: "Jn 3:16; 4:1; Gen 1:1",
				Keys:  []string{"John.3:16", "John.4:1", "Gen.1:1"},
				Pieces: []PieceInfo{
					{Start: "John.3:16", End: "John.3:16", Kind: "single"},
					{Start: "John.4:1", End: "John.4:1", Kind: "single"},
					{Start: "Gen.1:1", End: "Gen.1:1", Kind: "single"},
				},
			},
		},
		{
			name:   "range expanded",
			target: "/parse?expand=true&q=" + urlQuery("Jn 3:16-18"),
			want: ParseResult{
				Query: "Jn 3:16-18",
				Keys:  []string{"John.3:16", "John.3:17", "John.3:18"},
				Pieces: []PieceInfo{
					{Start: "John.3:16", End: "John.3:18", Kind: "range", Keys: []string{"John.3:16", "John.3:17", "John.3:18"}},
				},
			},
		},
		{
			name:   "nothing resolves",
			target: "/parse?q=" + urlQuery("Qqqqqqqq 99:99"),
			want:   ParseResult{Query: "Qqqqqqqq 99:99", Keys: []string{}, Pieces: []PieceInfo{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			var got ParseResult
			decodeData(t, resp.Data, &got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleParseErrors(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing q", http.MethodGet, "/parse", "", http.StatusBadRequest, "INVALID_QUERY"},
		{"too long", http.MethodGet, "/parse?q=" + strings.Repeat("a", 600), "", http.StatusBadRequest, "INVALID_QUERY"},
		{"bad json", http.MethodPost, "/parse", "{", http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown field", http.MethodPost, "/parse", `{"query":"Jn 3:16"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty batch", http.MethodPost, "/parse", `{"queries":[]}`, http.StatusBadRequest, "INVALID_QUERY"},
		{"wrong method", http.MethodDelete, "/parse", "", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(`{"queries":["Jn 3:16"]}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rec.Code)
		}
	})
}

func TestHandleParseBatch(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	rec, resp := do(t, h, http.MethodPost, "/parse", `{"queries":["Ps23","rom 8 28"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Meta == nil || resp.Meta.Total != 2 {
		t.Errorf("meta = %+v, want total 2", resp.Meta)
	}
	var got []ParseResult
	decodeData(t, resp.Data, &got)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if diff := cmp.Diff([]string{"Ps.23:1"}, got[0].Keys); diff != "" {
		t.Errorf("Ps23 keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Rom.8:28"}, got[1].Keys); diff != "" {
		t.Errorf("rom 8 28 keys (-want +got):\n%s", diff)
	}
}

func TestParseCache(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	do(t, h, http.MethodGet, "/parse?q="+urlQuery("Jn 3:16"), "")
	do(t, h, http.MethodGet, "/parse?q="+urlQuery("jn  3:16"), "")

	stats := s.parsed.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("cache stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestHealthReportsEvictions(t *testing.T) {
	h := newTestServer(t, Config{CacheSize: 1}).Handler()

	do(t, h, http.MethodGet, "/parse?q="+urlQuery("Gen 1:1"), "")
	do(t, h, http.MethodGet, "/parse?q="+urlQuery("Ex 1:1"), "")

	_, resp := do(t, h, http.MethodGet, "/health", "")
	var health HealthInfo
	decodeData(t, resp.Data, &health)
	if health.Cache.Evictions != 1 || health.Cache.Size != 1 || health.Cache.MaxSize != 2 {
		t.Errorf("cache stats = %+v, want 1 eviction and 1 entry of 2", health.Cache)
	}
}

func TestHandleExplain(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	_, resp := do(t, h, http.MethodGet, "/explain?q="+urlQuery("Jn 3:16; Qqqqqqqq 1:1; Jude 2:1"), "")
	var got []OutcomeInfo
	decodeData(t, resp.Data, &got)
	if len(got) != 3 {
		t.Fatalf("got %d outcomes, want 3: %+v", len(got), got)
	}
	if got[0].Piece == nil || got[0].Piece.Start != "John.3:16" || got[0].Shape != refparse.ShapeSpaced {
		t.Errorf("outcome 0 = %+v", got[0])
	}
	if got[1].Error == nil || got[1].Error.Code != "UNRECOGNIZED_BOOK" {
		t.Errorf("outcome 1 error = %+v, want UNRECOGNIZED_BOOK", got[1].Error)
	}
	if got[2].Error == nil || got[2].Error.Code != "INVALID_CHAPTER" {
		t.Errorf("outcome 2 error = %+v, want INVALID_CHAPTER", got[2].Error)
	}
}

func TestHandleCandidates(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	_, resp := do(t, h, http.MethodGet, "/candidates?q=Ps23", "")
	var got CandidatesResult
	decodeData(t, resp.Data, &got)
	if got.Best != "Ps.23:1" {
		t.Errorf("best = %q, want Ps.23:1", got.Best)
	}
	var keys []string
	for _, c := range got.Candidates {
		keys = append(keys, c.Key)
	}
	if diff := cmp.Diff([]string{"Ps.23:1", "Ps.2:3", "Ps.1:1"}, keys); diff != "" {
		t.Errorf("candidate keys (-want +got):\n%s", diff)
	}

	_, resp = do(t, h, http.MethodGet, "/candidates?limit=1&q=Ps23", "")
	decodeData(t, resp.Data, &got)
	if len(got.Candidates) != 1 {
		t.Errorf("limit=1 gave %d candidates", len(got.Candidates))
	}

	rec, _ := do(t, h, http.MethodGet, "/candidates?limit=-1&q=Ps23", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}

	_, resp = do(t, h, http.MethodGet, "/candidates?q=zzzz", "")
	var empty CandidatesResult
	decodeData(t, resp.Data, &empty)
	if empty.Best != "" || len(empty.Candidates) != 0 {
		t.Errorf("unresolvable query gave %+v", empty)
	}
}

func TestHandleValidate(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	_, resp := do(t, h, http.MethodPost, "/validate", `{"keys":["John.3:16","John.3:16a","Jude.1:26","Gen.1.1","Foo.1:1"]}`)
	var got []KeyValidity
	decodeData(t, resp.Data, &got)

	want := []bool{true, true, false, true, false}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Valid != w {
			t.Errorf("%s valid = %v, want %v (%s)", got[i].Key, got[i].Valid, w, got[i].Error)
		}
	}

	_, resp = do(t, h, http.MethodGet, "/validate?key=Rev.22:21", "")
	decodeData(t, resp.Data, &got)
	if len(got) != 1 || !got[0].Valid {
		t.Errorf("GET validate = %+v", got)
	}

	parts := []struct {
		query   string
		wantKey string
		valid   bool
	}{
		{"book=jn&chapter=3&verse=16", "John.3:16", true},
		{"book=Gen&chapter=50&verse=27", "Gen.50:27", false},
		{"book=Zzz&chapter=1&verse=1", "Zzz 1:1", false},
		{"book=Gen&chapter=x&verse=1", "Gen x:1", false},
	}
	for _, tt := range parts {
		t.Run(tt.query, func(t *testing.T) {
			_, resp := do(t, h, http.MethodGet, "/validate?"+tt.query, "")
			var got []KeyValidity
			decodeData(t, resp.Data, &got)
			if len(got) != 1 || got[0].Key != tt.wantKey || got[0].Valid != tt.valid {
				t.Errorf("validate?%s = %+v", tt.query, got)
			}
		})
	}
}

func TestHandleBooks(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()

	_, resp := do(t, h, http.MethodGet, "/books?aliases=true", "")
	var got []BookInfo
	decodeData(t, resp.Data, &got)
	if len(got) != 66 {
		t.Fatalf("got %d books, want 66", len(got))
	}
	if got[0].Tag != "Gen" || got[0].Chapters != 50 || got[0].Verses != 1533 || got[0].Testament != "OT" {
		t.Errorf("Genesis = %+v", got[0])
	}
	last := got[65]
	if last.Tag != "Rev" || last.Testament != "NT" || last.Chapters != 22 {
		t.Errorf("Revelation = %+v", last)
	}
	if len(got[0].Aliases) == 0 {
		t.Error("aliases requested but missing")
	}
}

func TestAuthMiddleware(t *testing.T) {
	key := "0123456789abcdef0123"
	h := newTestServer(t, Config{Auth: AuthConfig{Enabled: true, APIKey: key}}).Handler()

	rec, _ := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("public /health status = %d, want 200", rec.Code)
	}

	rec, resp := do(t, h, http.MethodGet, "/parse?q=Gen+1:1", "")
	if rec.Code != http.StatusUnauthorized || resp.Error.Code != "UNAUTHORIZED" {
		t.Errorf("missing key status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/parse?q=Gen+1:1", nil)
	req.Header.Set("X-API-Key", key)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/parse?q=Gen+1:1", nil)
	req.Header.Set("X-API-Key", "wrong-key-wrong-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", rec.Code)
	}
}

func TestNewServerValidation(t *testing.T) {
	engine := refparse.New(nil, nil, refparse.Options{})
	tests := []struct {
		name string
		cfg  Config
	}{
		{"auth without key", Config{Auth: AuthConfig{Enabled: true}}},
		{"short key", Config{Auth: AuthConfig{Enabled: true, APIKey: "short"}}},
		{"tls without files", Config{TLS: TLSConfig{Enabled: true}}},
		{"tls missing cert", Config{TLS: TLSConfig{Enabled: true, CertFile: "/nonexistent.pem", KeyFile: "/nonexistent.key"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewServer(engine, tt.cfg); err == nil {
				t.Error("NewServer() error = nil, want error")
			}
		})
	}
	if _, err := NewServer(nil, Config{}); err == nil {
		t.Error("NewServer(nil) error = nil, want error")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestServer(t, Config{}).Handler()
	rec, _ := do(t, h, http.MethodGet, "/health", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header missing")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func urlQuery(s string) string {
	r := strings.NewReplacer(" ", "+", ";", "%3B", ",", "%2C", ":", "%3A")
	return r.Replace(s)
}
