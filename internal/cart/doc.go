// Package cart synchronises the cart panel with the server-owned cart.
// Every successful mutation is followed by a full reload; the panel only ever shows
// the last snapshot the service returned.
package cart
