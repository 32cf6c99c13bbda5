// Package protocol defines the JSON wire contract of the storefront HTTP service.
// It covers cart snapshots, add-to-cart requests, transcription results, product
// listings and the {"error": "..."} body the service returns on failure.
package protocol
