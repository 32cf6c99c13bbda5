package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udyambharat/storefront-client/internal/config"
	"github.com/udyambharat/storefront-client/internal/httpclient"
	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/transcription"
	"github.com/udyambharat/storefront-client/internal/view"
	"github.com/udyambharat/storefront-client/internal/voice"
)

// TransportStats is implemented by httpclient.Transport
type TransportStats interface {
	GetStats() httpclient.Stats
}

// TranscriptionStats is implemented by transcription.Client
type TranscriptionStats interface {
	GetStats() transcription.ClientStats
}

// VoiceStats is implemented by voice.Manager
type VoiceStats interface {
	Stats() voice.Stats
	Sessions() []voice.SessionInfo
}

// Sources are the components the status endpoints report on
type Sources struct {
	Transport     TransportStats
	Transcription TranscriptionStats
	Voice         VoiceStats
	Cart          *view.CartPanel
	Gatherer      prometheus.Gatherer
}

// HTTPServer provides monitoring endpoints for the running client
type HTTPServer struct {
	server  *http.Server
	logger  *slog.Logger
	config  *config.Config
	sources Sources
	metrics *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates the status server. m may be nil.
func NewHTTPServer(cfg config.StatusConfig, logger *slog.Logger, appConfig *config.Config, sources Sources, m *metrics.Metrics) *HTTPServer {
	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		sources:   sources,
		metrics:   m,
		startTime: time.Now(),
	}

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      h.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Routes builds the router
func (h *HTTPServer) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/", h.withMetrics("/", h.handleRoot))
	router.Get("/health", h.withMetrics("/health", h.handleHealth))
	router.Get("/config", h.withMetrics("/config", h.handleConfig))
	router.Get("/stats", h.withMetrics("/stats", h.handleStats))
	router.Get("/stats/voice", h.withMetrics("/stats/voice", h.handleVoiceSessions))

	gatherer := h.sources.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return router
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		handler(ww, r)

		if h.metrics == nil {
			return
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		h.metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(status), time.Since(startTime).Seconds())

		if status >= 400 {
			errorType := "client_error"
			if status >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting status server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("Status server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping status server...")

	return h.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]interface{}{}

	if h.sources.Transport != nil {
		stats := h.sources.Transport.GetStats()
		components["api"] = map[string]interface{}{
			"total_requests":  stats.TotalRequests,
			"network_errors":  stats.NetworkErrors,
			"success_rate":    stats.SuccessRate,
			"active_requests": stats.ActiveRequests,
		}
	}

	if h.sources.Voice != nil {
		stats := h.sources.Voice.Stats()
		components["voice"] = map[string]interface{}{
			"active_sessions": stats.Active,
		}
	}

	writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "storefront-client",
			"version": "1.0.0",
		},
		"components": components,
	})
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		http.Error(w, "Configuration unavailable", http.StatusServiceUnavailable)
		return
	}

	sanitized := h.config.Sanitized()
	writeJSON(w, map[string]interface{}{
		"api": map[string]interface{}{
			"base_url":       sanitized.API.BaseURL,
			"timeout":        sanitized.API.Timeout,
			"max_concurrent": sanitized.API.MaxConcurrent,
			"session_cookie": sanitized.API.SessionCookie,
		},
		"voice":   sanitized.Voice,
		"ui":      sanitized.UI,
		"logging": sanitized.Logging,
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
	}

	if h.sources.Transport != nil {
		stats["api"] = h.sources.Transport.GetStats()
	}
	if h.sources.Transcription != nil {
		stats["transcription"] = h.sources.Transcription.GetStats()
	}
	if h.sources.Voice != nil {
		stats["voice"] = h.sources.Voice.Stats()
	}
	if h.sources.Cart != nil {
		items := h.sources.Cart.Items()
		stats["cart"] = map[string]interface{}{
			"items": len(items),
			"units": items.Units(),
			"total": h.sources.Cart.Total().StringFixed(2),
		}
	}

	writeJSON(w, stats)
}

// handleVoiceSessions implements the /stats/voice endpoint
func (h *HTTPServer) handleVoiceSessions(w http.ResponseWriter, r *http.Request) {
	if h.sources.Voice == nil {
		http.Error(w, "Voice input disabled", http.StatusNotFound)
		return
	}

	sessions := h.sources.Voice.Sessions()
	writeJSON(w, map[string]interface{}{
		"active_sessions": len(sessions),
		"timestamp":       time.Now().UTC(),
		"sessions":        sessions,
	})
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"service": "Storefront Client Status",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":            "API documentation",
			"GET /health":      "Client health check",
			"GET /config":      "Sanitised configuration",
			"GET /stats":       "Request, transcription, voice and cart statistics",
			"GET /stats/voice": "Active voice sessions",
			"GET /metrics":     "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}
