// Package view holds the in-memory view model of the storefront page.
// Every component is built once by NewPage and injected; nothing is looked up by id at call time.
package view
