package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	"github.com/udyambharat/storefront-client/internal/audio"
	"github.com/udyambharat/storefront-client/internal/httpclient"
	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/protocol"
)

// Client uploads recordings to the transcription endpoint
type Client struct {
	transport httpclient.Doer
	metrics   *metrics.Metrics

	// Statistics
	totalRequests    uint64
	successRequests  uint64
	failedRequests   uint64
	emptyTranscripts uint64
	avgResponseTime  time.Duration

	mu sync.RWMutex
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests    uint64        `json:"total_requests"`
	SuccessRequests  uint64        `json:"success_requests"`
	FailedRequests   uint64        `json:"failed_requests"`
	EmptyTranscripts uint64        `json:"empty_transcripts"`
	SuccessRate      float64       `json:"success_rate"`
	AvgResponseTime  time.Duration `json:"avg_response_time"`
}

// NewClient creates a transcription client. m may be nil.
func NewClient(transport httpclient.Doer, m *metrics.Metrics) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	return &Client{
		transport: transport,
		metrics:   m,
	}, nil
}

// Transcribe sends a packaged recording and the language code in a single attempt.
// An empty transcript is reported as protocol.ErrEmptyTranscript.
func (c *Client) Transcribe(ctx context.Context, upload *audio.Upload, language string) (*protocol.TranscribeResponse, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, fmt.Errorf("cannot transcribe empty recording")
	}

	startTime := time.Now()
	c.incrementTotalRequests()

	response, err := c.doRequest(ctx, upload, language)
	elapsed := time.Since(startTime)

	if c.metrics != nil {
		confidence := 0.0
		if response != nil {
			confidence = response.Confidence
		}
		c.metrics.RecordTranscription(elapsed.Seconds(), confidence, err == nil)
	}

	if err != nil {
		c.incrementFailedRequests(err)
		return nil, err
	}

	c.incrementSuccessRequests(elapsed)
	return response, nil
}

// doRequest performs the upload
func (c *Client) doRequest(ctx context.Context, upload *audio.Upload, language string) (*protocol.TranscribeResponse, error) {
	body, contentType, err := createMultipartRequest(upload, language)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	resp, err := c.transport.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		Path:        protocol.PathTranscribe,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}

	response, err := protocol.ParseTranscribeResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// createMultipartRequest builds the form: the recording under "audio" and the language code
func createMultipartRequest(upload *audio.Upload, language string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, protocol.FieldAudio, upload.Filename))
	header.Set("Content-Type", upload.MimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField(protocol.FieldLanguage, language); err != nil {
		return nil, "", fmt.Errorf("failed to write field %s: %w", protocol.FieldLanguage, err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

func (c *Client) incrementFailedRequests(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
	if errors.Is(err, protocol.ErrEmptyTranscript) {
		c.emptyTranscripts++
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:    c.totalRequests,
		SuccessRequests:  c.successRequests,
		FailedRequests:   c.failedRequests,
		EmptyTranscripts: c.emptyTranscripts,
		SuccessRate:      successRate,
		AvgResponseTime:  c.avgResponseTime,
	}
}
