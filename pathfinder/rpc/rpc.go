package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
)

var Logger zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	Logger = zerolog.New(out).With().Timestamp().Str("component", "rpc").Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	Logger = l
}

// maxRequestBytes caps a decoded request body
const maxRequestBytes = 64 << 10

// ServerConfig holds configuration for the RPC server
type ServerConfig struct {
	Address               string
	AllowedOrigins        []string
	EnableMetrics         bool
	RatePerMinute         *int
	MaxConcurrentRequests *int
	OTelConfig            *OTelConfig
}

// DefaultServerConfig returns a default server configuration
func DefaultServerConfig() *ServerConfig {
	rateLimit := 0
	maxConcurrentRequests := 200
	return &ServerConfig{
		Address:               "localhost:8080",
		AllowedOrigins:        []string{"http://localhost:3000", "http://localhost:8080"},
		EnableMetrics:         true,
		RatePerMinute:         &rateLimit,
		MaxConcurrentRequests: &maxConcurrentRequests,
		OTelConfig:            DefaultOTelConfig(),
	}
}

// Server wraps the HTTP server and provides lifecycle management
type Server struct {
	config       *ServerConfig
	httpServer   *http.Server
	otelShutdown func(context.Context) error
}

// NewServer creates the swap RPC server over exchange.
func NewServer(ctx context.Context, config *ServerConfig, exchange brokers.Exchange) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if exchange == nil {
		return nil, errors.New("exchange is required")
	}

	var otelShutdown func(context.Context) error
	if config.OTelConfig.enabled() {
		shutdown, err := NewOTelSDK(ctx, config.OTelConfig)
		if err != nil {
			// Don't fail the server, continue without OTel
			Logger.Error().Err(err).Msg("Failed to initialize OpenTelemetry")
		} else {
			otelShutdown = shutdown
		}
	}

	handler := newHandler(config, exchange)
	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           h2c.NewHandler(newCORSHandler(config.AllowedOrigins, handler), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		config:       config,
		httpServer:   httpServer,
		otelShutdown: otelShutdown,
	}, nil
}

// newHandler builds the chi router with the middlewares, probes and the
// swap service procedures.
func newHandler(config *ServerConfig, exchange brokers.Exchange) http.Handler {
	mux := chi.NewMux()

	mux.Use(zerologMiddleware)
	mux.Use(zerologRecoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Compress(5))
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(realIPMiddleware)

	if config.RatePerMinute != nil && *config.RatePerMinute > 0 {
		mux.Use(httprate.LimitByIP(*config.RatePerMinute, time.Minute))
	}
	if config.MaxConcurrentRequests != nil && *config.MaxConcurrentRequests > 0 {
		mux.Use(middleware.Throttle(*config.MaxConcurrentRequests))
	}

	if config.EnableMetrics || (config.OTelConfig != nil && config.OTelConfig.UsePrometheus) {
		mux.Handle("/server/metrics", promhttp.Handler())
	}

	mux.HandleFunc("/server/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"spectra-swap"}`))
	})

	// Readiness flips once the pool and asset feeds are loaded
	mux.HandleFunc("/server/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !exchange.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	interceptors := []connect.Interceptor{
		loggingInterceptor(),
		noCacheInterceptor(),
	}
	if config.OTelConfig != nil && config.OTelConfig.EnableTracing {
		otelInterceptor, err := otelconnect.NewInterceptor()
		if err != nil {
			Logger.Warn().Err(err).Msg("Failed to create OTEL interceptor, continuing without it")
		} else {
			interceptors = append([]connect.Interceptor{otelInterceptor}, interceptors...)
		}
	}

	path, handler := NewSwapServiceHandler(NewSwapServer(exchange),
		connect.WithCodec(jsonCodec{}),
		connect.WithReadMaxBytes(maxRequestBytes),
		connect.WithRecover(recoverHandler),
		connect.WithInterceptors(interceptors...),
	)
	mux.Handle(path+"*", handler)
	return mux
}

// Handler returns the root handler, CORS and h2c included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving RPC requests without TLS
func (s *Server) Start() error {
	s.logServerInfo("http")
	return s.httpServer.ListenAndServe()
}

// StartTLS begins serving RPC requests with TLS
func (s *Server) StartTLS(certFile, keyFile string) error {
	s.logServerInfo("https")
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) logServerInfo(protocol string) {
	Logger.Info().
		Str("address", s.config.Address).
		Str("protocol", protocol).
		Msg("Spectra Swap RPC Server starting")

	Logger.Info().Msg("Available endpoints:")
	Logger.Info().Msg("\tRPC: /" + SwapServiceName + "/*")
	Logger.Info().Msg("\tHealth: /server/health")
	Logger.Info().Msg("\tReady: /server/ready")
	if s.config.EnableMetrics || (s.config.OTelConfig != nil && s.config.OTelConfig.UsePrometheus) {
		Logger.Info().Msg("\tMetrics: /server/metrics")
	}
}

// Shutdown stops accepting requests, then flushes telemetry
func (s *Server) Shutdown(ctx context.Context) error {
	Logger.Info().Msg("Shutting down RPC server...")

	var err error
	if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
		err = errors.Join(err, fmt.Errorf("http server: %w", shutdownErr))
	}
	if s.otelShutdown != nil {
		if otelErr := s.otelShutdown(ctx); otelErr != nil {
			err = errors.Join(err, fmt.Errorf("opentelemetry: %w", otelErr))
		}
	}
	if err != nil {
		Logger.Error().Err(err).Msg("Server shutdown incomplete")
		return err
	}

	Logger.Info().Msg("Server shutdown complete")
	return nil
}

// recoverHandler handles panics in RPC handlers
func recoverHandler(ctx context.Context, spec connect.Spec, header http.Header, p any) error {
	Logger.Error().
		Interface("panic", p).
		Str("procedure", spec.Procedure).
		Msg("Panic in RPC handler")
	return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
}
