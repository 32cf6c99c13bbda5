package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/udyambharat/storefront-client/internal/audio"
	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/protocol"
	"github.com/udyambharat/storefront-client/internal/view"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testFormat = audio.Format{MimeType: audio.MimePCM, SampleRate: 8000, Channels: 1}

// fakeDevice hands out fakeCaptures and records when they are stopped
type fakeDevice struct {
	clock   clock.Clock
	openErr error

	mu       sync.Mutex
	captures []*fakeCapture
}

func (d *fakeDevice) Open(ctx context.Context) (audio.Capture, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	c := &fakeCapture{clock: d.clock, out: make(chan []byte, 16)}
	d.mu.Lock()
	d.captures = append(d.captures, c)
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDevice) capture(t *testing.T, i int) *fakeCapture {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.captures) {
		t.Fatalf("Expected capture %d to be opened", i)
	}
	return d.captures[i]
}

type fakeCapture struct {
	clock clock.Clock
	out   chan []byte

	mu        sync.Mutex
	stops     int
	stoppedAt time.Time
}

func (c *fakeCapture) Format() audio.Format { return testFormat }

func (c *fakeCapture) Fragments() <-chan []byte { return c.out }

func (c *fakeCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	if c.stops == 1 {
		c.stoppedAt = c.clock.Now()
		close(c.out)
	}
	return nil
}

func (c *fakeCapture) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// fakeTranscriber returns a fixed answer and records what it received
type fakeTranscriber struct {
	resp  *protocol.TranscribeResponse
	err   error
	block bool

	mu       sync.Mutex
	uploads  []*audio.Upload
	language string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, upload *audio.Upload, language string) (*protocol.TranscribeResponse, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	f.language = language
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fixture struct {
	clock       *clock.Mock
	device      *fakeDevice
	transcriber *fakeTranscriber
	page        *view.Page
	alerts      *view.AlertLog
	manager     *Manager
	metrics     *metrics.Metrics
}

func newFixture(t *testing.T, transcriber *fakeTranscriber) *fixture {
	t.Helper()

	mock := clock.NewMock()
	alerts := &view.AlertLog{}
	page := view.NewPage(view.PageConfig{
		VoiceFields: []string{"title", "description"},
		Clock:       mock,
		Alerter:     alerts,
	})
	device := &fakeDevice{clock: mock}
	m := metrics.NewMetrics(prometheus.NewRegistry())

	manager, err := NewManager(device, transcriber, page, mock, testLogger, m, Config{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	t.Cleanup(func() {
		manager.Close()
		page.Close()
	})

	return &fixture{
		clock:       mock,
		device:      device,
		transcriber: transcriber,
		page:        page,
		alerts:      alerts,
		manager:     manager,
		metrics:     m,
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func waitSession(t *testing.T, session *Session) {
	t.Helper()
	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not finish")
	}
}

func noticeText(page *view.Page, anchor string) string {
	for _, n := range page.Board.Notices() {
		if n.Anchor == anchor {
			return n.Text
		}
	}
	return ""
}

func TestNewManagerValidation(t *testing.T) {
	page := view.NewPage(view.PageConfig{})
	defer page.Close()

	if _, err := NewManager(nil, &fakeTranscriber{}, page, nil, nil, nil, Config{}); err == nil {
		t.Error("Expected error for nil device")
	}
	if _, err := NewManager(audio.NoDevice{}, nil, page, nil, nil, nil, Config{}); err == nil {
		t.Error("Expected error for nil transcriber")
	}
	if _, err := NewManager(audio.NoDevice{}, &fakeTranscriber{}, nil, nil, nil, nil, Config{}); err == nil {
		t.Error("Expected error for nil page")
	}

	mgr, err := NewManager(audio.NoDevice{}, &fakeTranscriber{}, page, nil, nil, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	if mgr.config.RecordDuration != 5*time.Second {
		t.Errorf("Expected default duration 5s, got %v", mgr.config.RecordDuration)
	}
}

func TestCaptureStoppedOnceAtFiveSeconds(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{err: errors.New("upload failed")})
	start := f.clock.Now()

	session, err := f.manager.Start(context.Background(), "title", "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	trigger, _ := f.page.Trigger("title")
	if trigger.Label() != view.LabelRecording {
		t.Errorf("Expected trigger label %q, got %q", view.LabelRecording, trigger.Label())
	}
	if got := noticeText(f.page, "title"); got != MsgRecording {
		t.Errorf("Expected notice %q, got %q", MsgRecording, got)
	}
	if session.State() != StateRecording {
		t.Errorf("Expected recording state, got %s", session.State())
	}

	capture := f.device.capture(t, 0)

	f.clock.Add(4999 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if capture.stopCount() != 0 {
		t.Fatal("Capture stopped before 5000ms")
	}

	f.clock.Add(time.Millisecond)
	waitSession(t, session)

	if capture.stopCount() != 1 {
		t.Errorf("Expected exactly 1 stop, got %d", capture.stopCount())
	}
	if got := capture.stoppedAt.Sub(start); got != 5*time.Second {
		t.Errorf("Expected stop at 5s, got %v", got)
	}

	if trigger.Label() != view.LabelIdle {
		t.Errorf("Expected trigger label restored, got %q", trigger.Label())
	}

	// failed upload: the recording was still stopped exactly once
	if session.State() != StateFailed {
		t.Errorf("Expected failed state, got %s", session.State())
	}
}

func TestTranscriptAssignedToField(t *testing.T) {
	transcriber := &fakeTranscriber{resp: &protocol.TranscribeResponse{Transcript: "red cotton saree", Confidence: 0.876}}
	f := newFixture(t, transcriber)

	field, _ := f.page.Form.Field("description")
	var observed []string
	field.OnInput(func(value string) {
		observed = append(observed, field.Value())
	})

	f.page.Language.Assign("hi")

	session, err := f.manager.Start(context.Background(), "description", "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	capture := f.device.capture(t, 0)
	capture.out <- make([]byte, 320)
	capture.out <- make([]byte, 160)

	f.clock.Add(5 * time.Second)
	waitSession(t, session)

	if session.Err() != nil {
		t.Fatalf("Unexpected session error: %v", session.Err())
	}

	if field.Value() != "red cotton saree" {
		t.Errorf("Expected transcript in field, got %q", field.Value())
	}

	if len(observed) != 1 || observed[0] != "red cotton saree" {
		t.Errorf("Listener must fire once after assignment, got %v", observed)
	}

	if got := noticeText(f.page, "description"); got != "Transcribed (88% confidence)" {
		t.Errorf("Unexpected notice %q", got)
	}

	transcriber.mu.Lock()
	upload := transcriber.uploads[0]
	language := transcriber.language
	transcriber.mu.Unlock()

	if language != "hi" {
		t.Errorf("Expected language from selector, got %q", language)
	}
	if len(upload.Data) != 44+480 {
		t.Errorf("Expected WAV of 524 bytes, got %d", len(upload.Data))
	}

	if session.State() != StateDone || session.Transcript() != "red cotton saree" {
		t.Errorf("Unexpected session %+v", session.Info())
	}

	if _, active := f.manager.Active("description"); active {
		t.Error("Session must leave the active set once resolved")
	}

	if got := testutil.ToFloat64(f.metrics.RecordingOutcomes.WithLabelValues("done")); got != 1 {
		t.Errorf("Expected 1 done outcome, got %f", got)
	}
}

func TestStatusNoticeRemovedThreeSecondsAfterResult(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{resp: &protocol.TranscribeResponse{Transcript: "pot", Confidence: 0.5}})

	session, err := f.manager.Start(context.Background(), "title", "en")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	f.device.capture(t, 0).out <- make([]byte, 320)

	f.clock.Add(5 * time.Second)
	waitSession(t, session)

	if session.State() != StateDone {
		t.Fatalf("Expected done state, got %s (%v)", session.State(), session.Err())
	}

	f.clock.Add(2999 * time.Millisecond)
	if noticeText(f.page, "title") == "" {
		t.Fatal("Notice removed before 3000ms")
	}

	f.clock.Add(time.Millisecond)
	waitFor(t, func() bool { return noticeText(f.page, "title") == "" }, "notice removal")
}

func TestEmptyTranscriptLeavesFieldUnchanged(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{err: protocol.ErrEmptyTranscript})

	field, _ := f.page.Form.Field("title")
	field.Assign("original")

	session, err := f.manager.Start(context.Background(), "title", "en")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	f.device.capture(t, 0).out <- make([]byte, 320)

	f.clock.Add(5 * time.Second)
	waitSession(t, session)

	if !errors.Is(session.Err(), protocol.ErrEmptyTranscript) {
		t.Errorf("Expected ErrEmptyTranscript, got %v", session.Err())
	}

	if field.Value() != "original" {
		t.Errorf("Field must be unchanged, got %q", field.Value())
	}

	if got := noticeText(f.page, "title"); got != MsgTranscriptionFailed {
		t.Errorf("Expected %q, got %q", MsgTranscriptionFailed, got)
	}
}

func TestPermissionDeniedAlerts(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{})
	f.device.openErr = audio.ErrPermissionDenied

	_, err := f.manager.Start(context.Background(), "title", "en")
	if !errors.Is(err, audio.ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got %v", err)
	}

	alerts := f.alerts.Drain()
	if len(alerts) != 1 || alerts[0] != MsgMicrophoneDenied {
		t.Errorf("Unexpected alerts %v", alerts)
	}

	trigger, _ := f.page.Trigger("title")
	if trigger.Recording() {
		t.Error("Trigger must not be recording after a denied permission")
	}

	if _, active := f.manager.Active("title"); active {
		t.Error("Denied session must not stay active")
	}

	if f.manager.Stats().Failed != 1 {
		t.Errorf("Expected 1 failed session, got %d", f.manager.Stats().Failed)
	}

	f.transcriber.mu.Lock()
	defer f.transcriber.mu.Unlock()
	if len(f.transcriber.uploads) != 0 {
		t.Error("No upload expected")
	}
}

func TestDuplicateTriggerRejected(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{resp: &protocol.TranscribeResponse{Transcript: "x", Confidence: 1}})

	if _, err := f.manager.Start(context.Background(), "title", "en"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := f.manager.Start(context.Background(), "title", "en"); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Expected ErrSessionActive, got %v", err)
	}

	if _, err := f.manager.Start(context.Background(), "description", "en"); err != nil {
		t.Errorf("Other fields must not be blocked: %v", err)
	}

	stats := f.manager.Stats()
	if stats.Rejected != 1 || stats.Active != 2 || stats.Started != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestUnknownField(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{})

	if _, err := f.manager.Start(context.Background(), "price", "en"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestCloseReleasesCapture(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{})

	session, err := f.manager.Start(context.Background(), "title", "en")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	f.manager.Close()

	capture := f.device.capture(t, 0)
	if capture.stopCount() != 1 {
		t.Errorf("Expected capture stopped once, got %d", capture.stopCount())
	}

	if !errors.Is(session.Err(), context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", session.Err())
	}

	if _, err := f.manager.Start(context.Background(), "title", "en"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestCloseDuringTranscription(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{block: true})

	session, err := f.manager.Start(context.Background(), "title", "en")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	f.device.capture(t, 0).out <- make([]byte, 320)

	f.clock.Add(5 * time.Second)
	waitFor(t, func() bool {
		f.transcriber.mu.Lock()
		defer f.transcriber.mu.Unlock()
		return len(f.transcriber.uploads) == 1
	}, "upload")

	f.manager.Close()

	if session.State() != StateFailed {
		t.Errorf("Expected failed state, got %s", session.State())
	}
	if f.device.capture(t, 0).stopCount() != 1 {
		t.Error("Capture must be stopped exactly once")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:                 "idle",
		StateRequestingPermission: "requesting_permission",
		StateRecording:            "recording",
		StateProcessing:           "processing",
		StateDone:                 "done",
		StateFailed:               "failed",
		State(42):                 "unknown",
	}
	for state, want := range tests {
		if state.String() != want {
			t.Errorf("Expected %q, got %q", want, state.String())
		}
	}
}
