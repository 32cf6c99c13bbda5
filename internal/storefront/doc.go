// Package storefront wires configuration, API clients, the page view model and
// the voice and cart controllers into a single App driven by text commands.
package storefront
