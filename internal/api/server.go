// Package api serves reference resolution over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/FocuswithJustin/scriptref/core/cache"
	"github.com/FocuswithJustin/scriptref/core/refparse"
	"github.com/FocuswithJustin/scriptref/internal/logging"
	"github.com/FocuswithJustin/scriptref/internal/server"
)

// Version is reported by the root and health endpoints.
const Version = "0.1.0"

// Server answers reference queries against one engine.
type Server struct {
	engine  *refparse.Engine
	cfg     Config
	parsed  *cache.QueryCache[ParseResult]
	ranked  *cache.QueryCache[[]refparse.Candidate]
	hub     *Hub
	limiter *RateLimiter
	started time.Time
}

// NewServer validates cfg and creates a server for engine.
func NewServer(engine *refparse.Engine, cfg Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("api: nil engine")
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return nil, fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return nil, fmt.Errorf("TLS key file not found: %w", err)
		}
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.WebSocket == (WebSocketConfig{}) {
		cfg.WebSocket = DefaultWebSocketConfig()
	}

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		parsed:  cache.NewQueryCache[ParseResult](cacheConfig("parse", cfg)),
		ranked:  cache.NewQueryCache[[]refparse.Candidate](cacheConfig("candidates", cfg)),
		hub:     NewHub(),
		started: time.Now(),
	}
	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
			TrustProxy:        cfg.TrustProxy,
		})
	}
	return s, nil
}

func cacheConfig(name string, cfg Config) cache.Config {
	return cache.Config{
		MaxSize: cfg.CacheSize,
		TTL:     cfg.CacheTTL,
		OnEvict: func(mode, query string, reason cache.EvictReason) {
			logging.CacheEvicted(name, mode, query, string(reason))
		},
	}
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), s.routes())
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	if s.cfg.SlowRequest > 0 {
		handler = server.TimingMiddleware(s.cfg.SlowRequest, handler)
	}
	return logging.CombinedMiddleware(handler)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/parse", s.handleParse)
	mux.HandleFunc("/explain", s.handleExplain)
	mux.HandleFunc("/candidates", s.handleCandidates)
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/books", s.handleBooks)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logStartup()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.cfg.TLS.Enabled {
			errCh <- srv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects WebSocket clients and stops background work.
func (s *Server) Close() {
	s.hub.CloseAll()
	if s.limiter != nil {
		s.limiter.Close()
	}
}

func (s *Server) logStartup() {
	protocol, wsProtocol := "http", "ws"
	if s.cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", server.AbsPath(s.cfg.TLS.CertFile))
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}

	table := s.engine.Table()
	logging.ServerStartup("rest_api", protocol, s.cfg.Port,
		"websocket_protocol", wsProtocol,
		"table_fingerprint", table.Fingerprint(),
		"verses", table.TotalVerses())

	logging.SecurityEvent("authentication_configured", "api", "enabled", s.cfg.Auth.Enabled)
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
	if s.limiter != nil {
		logging.Info("rate limiting enabled",
			"requests_per_minute", s.cfg.RateLimitRequests,
			"burst_size", s.limiter.config.BurstSize)
	}
}
