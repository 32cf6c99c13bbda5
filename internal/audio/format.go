package audio

import (
	"fmt"
	"strings"
)

// Mime types produced by capture devices
const (
	MimePCM  = "audio/pcm" // raw little-endian PCM-16
	MimeWAV  = "audio/wav"
	MimeWebM = "audio/webm;codecs=opus"
)

// Format describes the fragments a capture produces
type Format struct {
	MimeType   string
	SampleRate int
	Channels   int
}

// IsPCM reports whether fragments are raw PCM-16 samples
func (f Format) IsPCM() bool {
	return f.MimeType == MimePCM
}

// FrameSize returns the bytes per sample frame for PCM-16
func (f Format) FrameSize() int {
	channels := f.Channels
	if channels < 1 {
		channels = 1
	}
	return 2 * channels
}

// BytesPerSecond returns the PCM data rate
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

// Upload is a recording packaged for the transcription endpoint
type Upload struct {
	Data     []byte
	Filename string
	MimeType string
}

// Package wraps a concatenated recording for upload.
// PCM is wrapped in a WAV container; encoded formats are passed through.
func Package(data []byte, format Format) (*Upload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("recording is empty")
	}

	if format.IsPCM() {
		wav, err := EncodeWAV(data, format.SampleRate, format.Channels)
		if err != nil {
			return nil, fmt.Errorf("failed to encode WAV: %w", err)
		}
		return &Upload{Data: wav, Filename: "voice_input.wav", MimeType: MimeWAV}, nil
	}

	return &Upload{
		Data:     data,
		Filename: "voice_input." + extensionFor(format.MimeType),
		MimeType: format.MimeType,
	}, nil
}

// extensionFor maps a mime type such as "audio/webm;codecs=opus" to "webm"
func extensionFor(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	_, sub, ok := strings.Cut(base, "/")
	if !ok || sub == "" {
		return "bin"
	}
	return sub
}
