// Package audio handles microphone capture, fragment accumulation and WAV packaging.
// A Device grants a Capture that streams binary fragments until stopped; a Buffer
// keeps them in arrival order; PCM recordings are wrapped in a WAV container for upload.
package audio
