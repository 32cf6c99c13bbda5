package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

var (
	// ErrPermissionDenied is returned when the user refuses microphone access
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable is returned when no capture device can be opened
	ErrDeviceUnavailable = errors.New("microphone unavailable")
)

// Device grants exclusive audio captures
type Device interface {
	// Open acquires the device. Errors wrap ErrPermissionDenied or ErrDeviceUnavailable.
	Open(ctx context.Context) (Capture, error)
}

// Capture is an acquired, running recording
type Capture interface {
	Format() Format
	// Fragments delivers audio in capture order and is closed after Stop.
	Fragments() <-chan []byte
	// Stop releases the device. Calling it more than once is a no-op.
	Stop() error
}

// NoDevice is used when no capture source is configured
type NoDevice struct{}

// Open always fails with ErrDeviceUnavailable
func (NoDevice) Open(context.Context) (Capture, error) {
	return nil, fmt.Errorf("%w: no capture source configured", ErrDeviceUnavailable)
}

// FileDevice replays a WAV file as if it were a live microphone.
// Fragments are emitted at real-time pace; after the file ends the capture stays
// open and silent until stopped.
type FileDevice struct {
	Path             string
	Clock            clock.Clock
	FragmentInterval time.Duration
}

// NewFileDevice creates a file-backed device emitting a fragment every interval
func NewFileDevice(path string, clk clock.Clock, interval time.Duration) *FileDevice {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &FileDevice{Path: path, Clock: clk, FragmentInterval: interval}
}

// Open reads and decodes the file and starts emitting fragments
func (d *FileDevice) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	pcm, format, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, d.Path, err)
	}

	fragmentSize := int(float64(format.BytesPerSecond()) * d.FragmentInterval.Seconds())
	fragmentSize -= fragmentSize % format.FrameSize()
	if fragmentSize <= 0 {
		fragmentSize = format.FrameSize()
	}

	capture := &fileCapture{
		format: format,
		out:    make(chan []byte, 16),
		stop:   make(chan struct{}),
	}

	ticker := d.Clock.Ticker(d.FragmentInterval)
	go capture.run(ticker, pcm, fragmentSize)

	return capture, nil
}

// fileCapture streams a decoded file
type fileCapture struct {
	format Format
	out    chan []byte
	stop   chan struct{}
	once   sync.Once
}

func (c *fileCapture) Format() Format {
	return c.format
}

func (c *fileCapture) Fragments() <-chan []byte {
	return c.out
}

func (c *fileCapture) Stop() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *fileCapture) run(ticker *clock.Ticker, pcm []byte, fragmentSize int) {
	defer close(c.out)
	defer ticker.Stop()

	offset := 0
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if offset >= len(pcm) {
				continue
			}
			end := offset + fragmentSize
			if end > len(pcm) {
				end = len(pcm)
			}
			select {
			case c.out <- pcm[offset:end]:
				offset = end
			case <-c.stop:
				return
			}
		}
	}
}
