package audio

import (
	"fmt"
	"sync"
	"time"
)

// Buffer accumulates recorded fragments in arrival order.
// There is no size cap: a recording window is short and bounded by its timer.
type Buffer struct {
	format Format

	fragments [][]byte
	size      int

	firstAt time.Time
	lastAt  time.Time
	dropped uint32 // empty fragments ignored

	mu sync.RWMutex
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	Fragments int           `json:"fragments"`
	Bytes     int           `json:"bytes"`
	Dropped   uint32        `json:"dropped"`
	Duration  time.Duration `json:"duration"`
	MimeType  string        `json:"mime_type"`
}

// NewBuffer creates an empty buffer for the given capture format
func NewBuffer(format Format) *Buffer {
	return &Buffer{
		format:    format,
		fragments: make([][]byte, 0, 64),
	}
}

// Append stores a copy of fragment after the previously appended ones
func (b *Buffer) Append(fragment []byte, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(fragment) == 0 {
		b.dropped++
		return nil
	}

	if b.format.IsPCM() && len(fragment)%b.format.FrameSize() != 0 {
		return fmt.Errorf("PCM fragment length must be a multiple of %d bytes (got %d bytes)",
			b.format.FrameSize(), len(fragment))
	}

	data := make([]byte, len(fragment))
	copy(data, fragment)
	b.fragments = append(b.fragments, data)
	b.size += len(data)

	if b.firstAt.IsZero() {
		b.firstAt = at
	}
	b.lastAt = at

	return nil
}

// Bytes concatenates every fragment into one payload
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	payload := make([]byte, 0, b.size)
	for _, fragment := range b.fragments {
		payload = append(payload, fragment...)
	}
	return payload
}

// Len returns the number of stored fragments
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.fragments)
}

// Size returns the number of stored bytes
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Format returns the capture format of the stored fragments
func (b *Buffer) Format() Format {
	return b.format
}

// Duration returns the audio duration for PCM, or the arrival span for encoded fragments
func (b *Buffer) Duration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.duration()
}

func (b *Buffer) duration() time.Duration {
	if b.format.IsPCM() && b.format.BytesPerSecond() > 0 {
		return time.Duration(float64(b.size) / float64(b.format.BytesPerSecond()) * float64(time.Second))
	}
	if b.firstAt.IsZero() {
		return 0
	}
	return b.lastAt.Sub(b.firstAt)
}

// GetStats returns current buffer statistics
func (b *Buffer) GetStats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BufferStats{
		Fragments: len(b.fragments),
		Bytes:     b.size,
		Dropped:   b.dropped,
		Duration:  b.duration(),
		MimeType:  b.format.MimeType,
	}
}
