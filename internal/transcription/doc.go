// Package transcription implements the client for the storefront's voice transcription endpoint.
// A recording is uploaded once as multipart form data together with its language code;
// failures are returned to the caller without retry.
package transcription
