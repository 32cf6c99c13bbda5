// Package fakeshop is an in-memory storefront service used for local runs of the
// client and by tests. It serves the product, cart, checkout and transcription
// endpoints with the same JSON contract as the real service.
package fakeshop
