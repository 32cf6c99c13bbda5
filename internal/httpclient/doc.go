// Package httpclient implements the shared HTTP transport used by the storefront API clients.
// It resolves service paths against the configured base URL, bounds concurrency, forwards the
// externally managed session cookie, and maps failures to network or status errors.
package httpclient
