// Package voice runs voice input sessions: a fixed-length recording from the microphone
// is uploaded for transcription and the transcript is written into the target field.
package voice
