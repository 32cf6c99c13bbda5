// Package metrics defines the Prometheus instruments of the storefront client.
package metrics
