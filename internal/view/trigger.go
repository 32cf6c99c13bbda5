package view

import "sync"

// Trigger labels
const (
	LabelIdle      = "Voice Input"
	LabelRecording = "Recording..."
)

// Trigger is the voice input control bound to one target field
type Trigger struct {
	Target string

	recording bool
	mu        sync.RWMutex
}

// SetRecording flags the trigger as recording or idle
func (t *Trigger) SetRecording(recording bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = recording
}

// Recording reports whether the trigger is flagged as recording
func (t *Trigger) Recording() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recording
}

// Label returns the text shown on the trigger
func (t *Trigger) Label() string {
	if t.Recording() {
		return LabelRecording
	}
	return LabelIdle
}
