package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
}

func TestWebSocketSuggest(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	requests := []SuggestRequest{
		{ID: "1", Query: "jn316"},
		{ID: "2", Query: "Ps23", Limit: 2},
		{ID: "3", Query: ""},
	}
	for _, req := range requests {
		if err := conn.WriteJSON(req); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var responses []SuggestResponse
	for range requests {
		var resp SuggestResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read: %v", err)
		}
		responses = append(responses, resp)
	}

	session := responses[0].Session
	if len(session) != 36 {
		t.Errorf("session %q is not a UUID", session)
	}
	for _, resp := range responses {
		if resp.Session != session {
			t.Errorf("session changed within a connection: %q vs %q", resp.Session, session)
		}
	}

	if responses[0].ID != "1" || responses[0].Result == nil || responses[0].Result.Best != "John.3:16" {
		t.Errorf("response 1 = %+v", responses[0])
	}
	if responses[1].Result == nil || len(responses[1].Result.Candidates) != 2 {
		t.Errorf("response 2 = %+v, want 2 candidates", responses[1])
	}
	if responses[2].Error == nil || responses[2].Error.Code != "INVALID_QUERY" {
		t.Errorf("response 3 = %+v, want INVALID_QUERY", responses[2])
	}

	waitFor(t, func() bool { return s.hub.Count() == 1 })
	conn.Close()
	waitFor(t, func() bool { return s.hub.Count() == 0 })
}

func TestWebSocketMalformedMessage(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp SuggestResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "INVALID_REQUEST" {
		t.Errorf("response = %+v, want INVALID_REQUEST", resp)
	}
}

func TestWebSocketOriginRejected(t *testing.T) {
	s := newTestServer(t, Config{AllowedOrigins: []string{"https://app.example"}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, resp, err := dialWS(t, srv, "https://evil.example")
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded from a disallowed origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}

	conn, _, err = dialWS(t, srv, "https://app.example")
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	conn.Close()
}

func TestWebSocketRateLimit(t *testing.T) {
	s := newTestServer(t, Config{WebSocket: WebSocketConfig{MaxMessageRate: 1, MaxMessageSize: 1024}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Burst capacity is twice the rate, so the third message trips the limit.
	for i := 0; i < 3; i++ {
		if err := conn.WriteJSON(SuggestRequest{ID: "x", Query: "Gen 1:1"}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
			t.Errorf("read error = %v, want policy violation close", err)
		}
		break
	}
}

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://a.example", nil, true},
		{"", []string{"https://a.example"}, false},
		{"https://a.example", []string{"https://a.example"}, true},
		{"https://b.example", []string{"https://a.example"}, false},
		{"https://sub.a.example", []string{"*.a.example"}, true},
		{"https://evila.example", []string{"*.a.example"}, false},
		{"https://any.example", []string{"*"}, true},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}

func TestHubCloseAll(t *testing.T) {
	s := newTestServer(t, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return s.hub.Count() == 1 })

	s.hub.CloseAll()
	if s.hub.Count() != 0 {
		t.Errorf("Count() = %d after CloseAll, want 0", s.hub.Count())
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed by the server")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
