package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/udyambharat/storefront-client/internal/audio"
	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/protocol"
	"github.com/udyambharat/storefront-client/internal/view"
)

var (
	// ErrSessionActive is returned when the target field is already recording or transcribing
	ErrSessionActive = errors.New("voice session already active for field")
	// ErrUnknownField is returned for a target that is not a form field
	ErrUnknownField = errors.New("unknown target field")
	// ErrClosed is returned by Start after Close
	ErrClosed = errors.New("voice manager closed")
)

// User-facing texts
const (
	MsgMicrophoneDenied    = "Could not access microphone. Please ensure you have granted microphone permissions."
	MsgRecording           = "Recording..."
	MsgProcessing          = "Processing..."
	MsgTranscriptionFailed = "Transcription failed. Please try again."
)

// DefaultRecordDuration is the fixed recording window
const DefaultRecordDuration = 5 * time.Second

// transcribedMessage formats the success notice
func transcribedMessage(resp *protocol.TranscribeResponse) string {
	return fmt.Sprintf("Transcribed (%d%% confidence)", resp.ConfidencePercent())
}

// Transcriber converts a packaged recording to text
type Transcriber interface {
	Transcribe(ctx context.Context, upload *audio.Upload, language string) (*protocol.TranscribeResponse, error)
}

// Config contains voice manager configuration
type Config struct {
	RecordDuration  time.Duration
	DefaultLanguage string
}

// Manager owns the active voice sessions, at most one per target field
type Manager struct {
	device      audio.Device
	transcriber Transcriber
	page        *view.Page
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
	config      Config

	sessions map[string]*Session
	closed   bool

	// Statistics
	started   uint64
	completed uint64
	failed    uint64
	rejected  uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex
}

// Stats represents manager statistics
type Stats struct {
	Started   uint64 `json:"started"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Rejected  uint64 `json:"rejected"`
	Active    int    `json:"active"`
}

// NewManager creates a voice manager. m may be nil.
func NewManager(device audio.Device, transcriber Transcriber, page *view.Page, clk clock.Clock,
	logger *slog.Logger, m *metrics.Metrics, config Config) (*Manager, error) {
	if device == nil {
		return nil, fmt.Errorf("device cannot be nil")
	}
	if transcriber == nil {
		return nil, fmt.Errorf("transcriber cannot be nil")
	}
	if page == nil {
		return nil, fmt.Errorf("page cannot be nil")
	}

	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.RecordDuration <= 0 {
		config.RecordDuration = DefaultRecordDuration
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = "en"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		device:      device,
		transcriber: transcriber,
		page:        page,
		clock:       clk,
		logger:      logger,
		metrics:     m,
		config:      config,
		sessions:    make(map[string]*Session),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start requests the microphone and starts a recording for target.
// It returns once recording is running; the transcript is delivered asynchronously.
// ctx bounds the permission request only; the session lives until it resolves or Close.
// An empty language falls back to the page's language selector, then to the configured default.
func (m *Manager) Start(ctx context.Context, target, language string) (*Session, error) {
	field, ok := m.page.Form.Field(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, target)
	}
	trigger, ok := m.page.Trigger(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no voice trigger", ErrUnknownField, target)
	}

	if language == "" {
		language = m.page.Language.Value()
	}
	if language == "" {
		language = m.config.DefaultLanguage
	}

	session, err := m.register(target, language)
	if err != nil {
		return nil, err
	}

	capture, err := m.device.Open(ctx)
	if err != nil {
		m.logger.Warn("Microphone access failed",
			slog.String("session_id", session.ID),
			slog.String("target", target),
			slog.String("error", err.Error()),
		)

		m.page.Alerts.Alert(MsgMicrophoneDenied)
		if m.metrics != nil {
			m.metrics.RecordPermissionFailure()
		}

		m.unregister(session)
		m.incrementFailed()
		session.finish(StateFailed, "", 0, err)
		return nil, fmt.Errorf("open microphone: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = capture.Stop()
		m.unregister(session)
		m.incrementFailed()
		session.finish(StateFailed, "", 0, ErrClosed)
		return nil, ErrClosed
	}
	m.wg.Add(1)
	m.mu.Unlock()

	// The window starts now; the timer exists before Start returns.
	timer := m.clock.Timer(m.config.RecordDuration)

	session.mu.Lock()
	session.state = StateRecording
	session.StartTime = m.clock.Now()
	session.notice = m.page.Board.Show(target, MsgRecording)
	session.mu.Unlock()

	trigger.SetRecording(true)

	if m.metrics != nil {
		m.metrics.RecordRecordingStarted()
	}

	m.logger.Info("Voice recording started",
		slog.String("session_id", session.ID),
		slog.String("target", target),
		slog.String("language", language),
		slog.String("format", capture.Format().MimeType),
		slog.Duration("duration", m.config.RecordDuration),
	)

	go func() {
		defer m.wg.Done()
		m.run(session, capture, timer, trigger, field)
	}()

	return session, nil
}

// register reserves target for a new session
func (m *Manager) register(target, language string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if existing, active := m.sessions[target]; active {
		m.rejected++
		if m.metrics != nil {
			m.metrics.RecordRecordingRejected()
		}
		m.logger.Debug("Voice trigger ignored, session active",
			slog.String("target", target),
			slog.String("session_id", existing.ID),
			slog.String("state", existing.State().String()),
		)
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, target)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	session := &Session{
		ID:        uuid.NewString(),
		Target:    target,
		Language:  language,
		StartTime: m.clock.Now(),
		state:     StateRequestingPermission,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.sessions[target] = session
	m.started++
	return session, nil
}

func (m *Manager) unregister(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[session.Target] == session {
		delete(m.sessions, session.Target)
	}
}

// run records until the timer fires, then uploads and applies the transcript
func (m *Manager) run(session *Session, capture audio.Capture, timer *clock.Timer, trigger *view.Trigger, field *view.Field) {
	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			timer.Stop()
			if err := capture.Stop(); err != nil {
				m.logger.Warn("Failed to stop capture",
					slog.String("session_id", session.ID),
					slog.String("error", err.Error()),
				)
			}
			trigger.SetRecording(false)
		})
	}
	defer release()

	buffer := audio.NewBuffer(capture.Format())
	fragments := capture.Fragments()

recording:
	for {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				// device ended early; the window still runs to the timer
				fragments = nil
				continue
			}
			m.append(session, buffer, fragment)

		case <-timer.C:
			break recording

		case <-session.ctx.Done():
			release()
			m.resolve(session, buffer.Size(), nil, session.ctx.Err())
			return
		}
	}

	release()

	// fragments delivered between the timer and the stop belong to the recording
	if fragments != nil {
	drain:
		for {
			select {
			case fragment, ok := <-fragments:
				if !ok {
					break drain
				}
				m.append(session, buffer, fragment)
			case <-session.ctx.Done():
				m.resolve(session, buffer.Size(), nil, session.ctx.Err())
				return
			}
		}
	}

	stats := buffer.GetStats()
	session.setAudioBytes(stats.Bytes)
	session.setState(StateProcessing)
	m.page.Board.Update(session.notice, MsgProcessing)

	m.logger.Info("Voice recording stopped",
		slog.String("session_id", session.ID),
		slog.Int("fragments", stats.Fragments),
		slog.Int("bytes", stats.Bytes),
		slog.Duration("audio_duration", stats.Duration),
	)

	upload, err := audio.Package(buffer.Bytes(), buffer.Format())
	if err != nil {
		m.resolve(session, stats.Bytes, nil, fmt.Errorf("package recording: %w", err))
		return
	}

	resp, err := m.transcriber.Transcribe(session.ctx, upload, session.Language)
	if err != nil {
		m.resolve(session, stats.Bytes, nil, err)
		return
	}

	field.Assign(resp.Transcript)
	m.resolve(session, stats.Bytes, resp, nil)
}

func (m *Manager) append(session *Session, buffer *audio.Buffer, fragment []byte) {
	if err := buffer.Append(fragment, m.clock.Now()); err != nil {
		m.logger.Warn("Dropped audio fragment",
			slog.String("session_id", session.ID),
			slog.Int("size", len(fragment)),
			slog.String("error", err.Error()),
		)
	}
}

// resolve shows the final notice, schedules its removal and releases the target
func (m *Manager) resolve(session *Session, audioBytes int, resp *protocol.TranscribeResponse, err error) {
	m.unregister(session)

	if err != nil {
		outcome := "failed"
		if errors.Is(err, context.Canceled) {
			outcome = "cancelled"
		}

		m.page.Board.Update(session.notice, MsgTranscriptionFailed)
		m.page.Board.Expire(session.notice)
		m.incrementFailed()
		if m.metrics != nil {
			m.metrics.RecordRecordingFinished(outcome, audioBytes)
		}

		m.logger.Warn("Voice transcription failed",
			slog.String("session_id", session.ID),
			slog.String("target", session.Target),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)

		session.finish(StateFailed, "", 0, err)
		return
	}

	m.page.Board.Update(session.notice, transcribedMessage(resp))
	m.page.Board.Expire(session.notice)
	m.incrementCompleted()
	if m.metrics != nil {
		m.metrics.RecordRecordingFinished("done", audioBytes)
	}

	m.logger.Info("Voice transcription applied",
		slog.String("session_id", session.ID),
		slog.String("target", session.Target),
		slog.Int("confidence_pct", resp.ConfidencePercent()),
		slog.Int("chars", len(resp.Transcript)),
	)

	session.finish(StateDone, resp.Transcript, resp.Confidence, nil)
}

// Active returns the session running for target
func (m *Manager) Active(target string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[target]
	return session, ok
}

// Sessions returns a snapshot of the active sessions
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

func (m *Manager) incrementCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
}

func (m *Manager) incrementFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

// Stats returns current manager statistics
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Started:   m.started,
		Completed: m.completed,
		Failed:    m.failed,
		Rejected:  m.rejected,
		Active:    len(m.sessions),
	}
}

// Close cancels every active session, releases their captures and waits for them to finish
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	active := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("Stopping voice manager...", slog.Int("active_sessions", active))

	m.cancel()
	m.wg.Wait()

	stats := m.Stats()
	m.logger.Info("Voice manager stopped",
		slog.Uint64("started", stats.Started),
		slog.Uint64("completed", stats.Completed),
		slog.Uint64("failed", stats.Failed),
		slog.Uint64("rejected", stats.Rejected),
	)
}
