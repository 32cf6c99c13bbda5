package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/protocol"
)

var (
	// ErrNetwork wraps failures where no HTTP response was received
	ErrNetwork = errors.New("network error")
	// ErrClosed is returned by Do after Close
	ErrClosed = errors.New("transport closed")
)

// maxBodySize bounds how much of a response body is read
const maxBodySize = 10 << 20

// Config contains transport configuration
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	MaxConcurrent int
	SessionCookie string // "name=value", forwarded verbatim when set
	UserAgent     string
}

// Doer is the request surface the API clients depend on
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Transport performs requests against the storefront service
type Transport struct {
	config     Config
	baseURL    *url.URL
	httpClient *http.Client
	semaphore  chan struct{}
	metrics    *metrics.Metrics

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	networkErrors   uint64
	avgResponseTime time.Duration

	closed bool
	mu     sync.RWMutex
}

// Request describes a single call
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
}

// Response is a successful (2xx) answer
type Response struct {
	StatusCode int
	Body       []byte
}

// Stats represents transport statistics
type Stats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	NetworkErrors   uint64        `json:"network_errors"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ActiveRequests  int           `json:"active_requests"`
}

// New creates a transport. m may be nil.
func New(config Config, m *metrics.Metrics) (*Transport, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", config.BaseURL)
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}

	if config.UserAgent == "" {
		config.UserAgent = "storefront-client/1.0"
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: config.MaxConcurrent,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Transport{
		config:     config,
		baseURL:    baseURL,
		httpClient: httpClient,
		semaphore:  make(chan struct{}, config.MaxConcurrent),
		metrics:    m,
	}, nil
}

// Do sends the request and returns the body of a 2xx response.
// Non-2xx answers return *protocol.StatusError; transport failures wrap ErrNetwork.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}

	select {
	case t.semaphore <- struct{}{}:
		defer func() { <-t.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Close may have run while this call waited for a slot
	if t.isClosed() {
		return nil, ErrClosed
	}

	if t.metrics != nil {
		t.metrics.APIInFlight.Inc()
		defer t.metrics.APIInFlight.Dec()
	}

	startTime := time.Now()
	t.incrementTotalRequests()

	resp, err := t.doRequest(ctx, req)
	elapsed := time.Since(startTime)

	statusCode := "error"
	var statusErr *protocol.StatusError
	switch {
	case err == nil:
		statusCode = strconv.Itoa(resp.StatusCode)
		t.incrementSuccessRequests(elapsed)
	case errors.As(err, &statusErr):
		statusCode = strconv.Itoa(statusErr.StatusCode)
		t.incrementFailedRequests(false)
		t.recordError(req, "status")
	default:
		t.incrementFailedRequests(true)
		t.recordError(req, "network")
	}

	if t.metrics != nil {
		t.metrics.RecordAPIRequest(req.Method, req.Path, statusCode, elapsed.Seconds())
	}

	return resp, err
}

// doRequest performs a single HTTP request
func (t *Transport) doRequest(ctx context.Context, req Request) (*Response, error) {
	target := t.resolve(req.Path, req.Query)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.config.UserAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if t.config.SessionCookie != "" {
		httpReq.Header.Set("Cookie", t.config.SessionCookie)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.Method, req.Path, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, protocol.ParseStatusError(resp.StatusCode, body)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// resolve joins a service path onto the base URL, keeping any base path prefix
func (t *Transport) resolve(path string, query url.Values) string {
	u := *t.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (t *Transport) recordError(req Request, errorType string) {
	if t.metrics != nil {
		t.metrics.RecordAPIError(req.Method, req.Path, errorType)
	}
}

// Statistics methods
func (t *Transport) incrementTotalRequests() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalRequests++
}

func (t *Transport) incrementSuccessRequests(responseTime time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successRequests++

	// Simple moving average
	if t.avgResponseTime == 0 {
		t.avgResponseTime = responseTime
	} else {
		t.avgResponseTime = (t.avgResponseTime + responseTime) / 2
	}
}

func (t *Transport) incrementFailedRequests(network bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failedRequests++
	if network {
		t.networkErrors++
	}
}

// GetStats returns current transport statistics
func (t *Transport) GetStats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	successRate := float64(0)
	if t.totalRequests > 0 {
		successRate = float64(t.successRequests) / float64(t.totalRequests) * 100
	}

	return Stats{
		TotalRequests:   t.totalRequests,
		SuccessRequests: t.successRequests,
		FailedRequests:  t.failedRequests,
		NetworkErrors:   t.networkErrors,
		SuccessRate:     successRate,
		AvgResponseTime: t.avgResponseTime,
		ActiveRequests:  len(t.semaphore),
	}
}

// BaseURL returns the configured service base URL
func (t *Transport) BaseURL() string {
	return t.baseURL.String()
}

func (t *Transport) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Close rejects new requests and waits for active ones to complete
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	for i := 0; i < cap(t.semaphore); i++ {
		t.semaphore <- struct{}{}
	}
	for i := 0; i < cap(t.semaphore); i++ {
		<-t.semaphore
	}
	t.httpClient.CloseIdleConnections()
	return nil
}
