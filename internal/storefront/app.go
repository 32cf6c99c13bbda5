package storefront

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/udyambharat/storefront-client/internal/audio"
	"github.com/udyambharat/storefront-client/internal/cart"
	"github.com/udyambharat/storefront-client/internal/catalog"
	"github.com/udyambharat/storefront-client/internal/config"
	"github.com/udyambharat/storefront-client/internal/httpclient"
	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/server"
	"github.com/udyambharat/storefront-client/internal/transcription"
	"github.com/udyambharat/storefront-client/internal/view"
	"github.com/udyambharat/storefront-client/internal/voice"
)

// Options overrides the components New would otherwise build from the configuration
type Options struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Device   audio.Device
	Registry *prometheus.Registry
}

// App is the assembled storefront client
type App struct {
	config *config.Config
	logger *slog.Logger

	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	transport *httpclient.Transport

	catalog     *catalog.Client
	transcriber *transcription.Client
	alerts      *view.AlertLog
	page        *view.Page
	voice       *voice.Manager
	cart        *cart.Controller
	search      *catalog.Search
	status      *server.HTTPServer
}

// New builds every component once from cfg
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.NewMetrics(registry)

	transport, err := httpclient.New(httpclient.Config{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.GetTimeoutDuration(),
		MaxConcurrent: cfg.API.MaxConcurrent,
		SessionCookie: cfg.API.SessionCookie,
		UserAgent:     cfg.API.UserAgent,
	}, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	cartClient, err := cart.NewClient(transport)
	if err != nil {
		return nil, err
	}
	catalogClient, err := catalog.NewClient(transport)
	if err != nil {
		return nil, err
	}
	transcriber, err := transcription.NewClient(transport, m)
	if err != nil {
		return nil, err
	}

	alerts := &view.AlertLog{}
	page := view.NewPage(view.PageConfig{
		VoiceFields:     cfg.Voice.Fields,
		DefaultLanguage: cfg.Voice.DefaultLanguage,
		NoticeTTL:       cfg.UI.GetNotificationTTL(),
		Clock:           clk,
		Alerter:         alerts,
		Metrics:         m,
	})

	device := opts.Device
	if device == nil {
		device = newDevice(cfg.Voice, clk)
	}

	voiceMgr, err := voice.NewManager(device, transcriber, page, clk, logger, m, voice.Config{
		RecordDuration:  cfg.Voice.GetRecordDuration(),
		DefaultLanguage: cfg.Voice.DefaultLanguage,
	})
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to create voice manager: %w", err)
	}

	app := &App{
		config:      cfg,
		logger:      logger,
		registry:    registry,
		metrics:     m,
		transport:   transport,
		catalog:     catalogClient,
		transcriber: transcriber,
		alerts:      alerts,
		page:        page,
		voice:       voiceMgr,
		cart:        cart.NewController(cartClient, page, logger, m),
		search:      catalog.NewSearch(page, clk, cfg.UI.GetSearchDebounce(), logger, m),
	}

	if cfg.Status.Enabled {
		app.status = server.NewHTTPServer(cfg.Status, logger, cfg, app.Sources(), m)
	}

	return app, nil
}

func newDevice(cfg config.VoiceConfig, clk clock.Clock) audio.Device {
	if cfg.InputFile == "" {
		return audio.NoDevice{}
	}
	return audio.NewFileDevice(cfg.InputFile, clk, cfg.GetFragmentInterval())
}

// Sources exposes the components the status server reports on
func (a *App) Sources() server.Sources {
	return server.Sources{
		Transport:     a.transport,
		Transcription: a.transcriber,
		Voice:         a.voice,
		Cart:          a.page.Cart,
		Gatherer:      a.registry,
	}
}

// Page returns the bound view model
func (a *App) Page() *view.Page {
	return a.page
}

// Voice returns the voice input manager
func (a *App) Voice() *voice.Manager {
	return a.voice
}

// Start starts the status server when enabled and loads the initial cart
func (a *App) Start(ctx context.Context) error {
	if a.status != nil {
		if err := a.status.Start(); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
	}

	if err := a.cart.Load(ctx); err != nil {
		a.logger.Warn("Initial cart load failed", slog.String("error", err.Error()))
	}
	return nil
}

// Render writes pending alerts followed by the page
func (a *App) Render(w io.Writer) error {
	for _, message := range a.alerts.Drain() {
		if _, err := fmt.Fprintf(w, "!! %s\n", message); err != nil {
			return err
		}
	}
	return view.Render(w, a.page)
}

// Close stops recordings, timers and the status server
func (a *App) Close(ctx context.Context) error {
	a.voice.Close()
	a.search.Close()
	a.page.Close()

	var firstErr error
	if a.status != nil {
		if err := a.status.Stop(ctx); err != nil {
			firstErr = fmt.Errorf("failed to stop status server: %w", err)
		}
	}
	if err := a.transport.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	stats := a.voice.Stats()
	a.logger.Info("Final client statistics",
		slog.Uint64("recordings_started", stats.Started),
		slog.Uint64("recordings_completed", stats.Completed),
		slog.Uint64("recordings_failed", stats.Failed),
		slog.Uint64("api_requests", a.transport.GetStats().TotalRequests),
	)

	return firstErr
}
