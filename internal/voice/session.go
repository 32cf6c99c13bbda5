package voice

import (
	"context"
	"sync"
	"time"
)

// State is the lifecycle stage of a recording session
type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateRecording
	StateProcessing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting_permission"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is one voice input attempt for a target field
type Session struct {
	ID        string
	Target    string
	Language  string
	StartTime time.Time

	state      State
	transcript string
	confidence float64
	audioBytes int
	err        error
	notice     uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.RWMutex
}

// State returns the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Transcript returns the transcript of a finished session
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript
}

// Confidence returns the reported confidence in [0,1]
func (s *Session) Confidence() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confidence
}

// Err returns the failure cause of a failed session
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Done is closed once the session reaches Done or Failed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session finishes and returns its error
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info returns a snapshot for monitoring
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := SessionInfo{
		ID:         s.ID,
		Target:     s.Target,
		Language:   s.Language,
		State:      s.state.String(),
		StartTime:  s.StartTime,
		AudioBytes: s.audioBytes,
		Confidence: s.confidence,
	}
	if s.err != nil {
		info.Error = s.err.Error()
	}
	return info
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Session) setAudioBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioBytes = n
}

// finish records the final state and releases waiters
func (s *Session) finish(state State, transcript string, confidence float64, err error) {
	s.mu.Lock()
	s.state = state
	s.transcript = transcript
	s.confidence = confidence
	s.err = err
	s.mu.Unlock()

	s.cancel()
	close(s.done)
}

// SessionInfo represents session information for monitoring
type SessionInfo struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	Language   string    `json:"language"`
	State      string    `json:"state"`
	StartTime  time.Time `json:"start_time"`
	AudioBytes int       `json:"audio_bytes"`
	Confidence float64   `json:"confidence,omitempty"`
	Error      string    `json:"error,omitempty"`
}
