// Package server implements the optional status server of the storefront client:
// health, statistics, sanitised configuration and Prometheus metrics over HTTP.
package server
