package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server to provide graceful startup and shutdown helpers.
type HTTPServer struct {
	server *http.Server
}

const maxDeadlineMargin = 5 * time.Second

// NewHTTPServer creates a configured HTTP server instance. The write timeout
// is never set below the worst-case poll budget of a single provider.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      WriteTimeout(cfg),
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv}
}

// WriteTimeout is the server write timeout derived from cfg. Zero means no
// timeout.
func WriteTimeout(cfg *Config) time.Duration {
	writeTimeout := cfg.HTTPWriteTimeout
	if budget := pollBudget(cfg); writeTimeout > 0 && writeTimeout < budget {
		writeTimeout = budget
	}
	return writeTimeout
}

// GenerationDeadline is how long a handler may spend generating before the
// connection's write deadline passes. It leaves a fifth of the write timeout,
// capped at five seconds, for encoding and writing the response. Zero means no
// deadline.
func GenerationDeadline(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	margin := min(writeTimeout/5, maxDeadlineMargin)
	return writeTimeout - margin
}

func pollBudget(cfg *Config) time.Duration {
	return cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + 2*cfg.ProviderHTTPTimeout
}

// Addr returns the listen address.
func (s *HTTPServer) Addr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start runs the HTTP server in the current goroutine.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
