package catalog

import (
	"strings"

	"github.com/udyambharat/storefront-client/internal/view"
)

// Matches reports whether a card passes the filter: the term is a case-insensitive
// substring of the title or description, and the category is empty or equal to the card's.
func Matches(card *view.Card, term, category string) bool {
	term = strings.ToLower(term)

	textMatch := strings.Contains(strings.ToLower(card.Title), term) ||
		strings.Contains(strings.ToLower(card.Description), term)

	categoryMatch := category == "" || card.Category == category

	return textMatch && categoryMatch
}

// Apply filters the grid and returns the number of visible cards
func Apply(grid *view.Grid, term, category string) int {
	return grid.Apply(func(card *view.Card) bool {
		return Matches(card, term, category)
	})
}
