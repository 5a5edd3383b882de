package api

import "time"

// Config holds server configuration.
type Config struct {
	Port              int
	RateLimitRequests int  // Requests per minute (0 = disabled)
	RateLimitBurst    int  // Burst size
	TrustProxy        bool // Honour X-Forwarded-For for rate limiting
	Auth              AuthConfig
	TLS               TLSConfig
	AllowedOrigins    []string // CORS and WebSocket allowed origins (empty = allow all)
	CacheSize         int      // Cached query results (0 = DefaultCacheSize)
	CacheTTL          time.Duration
	SlowRequest       time.Duration // Requests slower than this are logged
	WebSocket         WebSocketConfig
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// DefaultCacheSize is the number of query results kept per endpoint.
const DefaultCacheSize = 4096

// DefaultConfig returns the configuration used by "serve" without flags.
func DefaultConfig() Config {
	return Config{
		Port:              8080,
		RateLimitRequests: 600,
		RateLimitBurst:    60,
		CacheSize:         DefaultCacheSize,
		CacheTTL:          10 * time.Minute,
		SlowRequest:       250 * time.Millisecond,
		WebSocket:         DefaultWebSocketConfig(),
	}
}
