package view

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/udyambharat/storefront-client/internal/protocol"
)

// Card is a rendered product in the grid
type Card struct {
	ProductID   string
	Title       string
	Description string
	Category    string
	District    string
	Seller      string
	Price       decimal.Decimal

	Quantity *Stepper

	visible bool
}

// CardView is a read-only copy of a card
type CardView struct {
	ProductID   string
	Title       string
	Description string
	Category    string
	District    string
	Seller      string
	Price       decimal.Decimal
	Quantity    int
	Visible     bool
}

// Grid holds the product cards in render order
type Grid struct {
	cards []*Card
	index map[string]*Card
	mu    sync.RWMutex
}

// NewGrid creates an empty grid
func NewGrid() *Grid {
	return &Grid{index: make(map[string]*Card)}
}

// Replace renders a new product list. Every card starts visible with quantity 1.
func (g *Grid) Replace(products []protocol.Product) {
	cards := make([]*Card, 0, len(products))
	index := make(map[string]*Card, len(products))

	for _, p := range products {
		card := &Card{
			ProductID:   p.ID,
			Title:       p.Name,
			Description: p.Description,
			Category:    p.Category,
			District:    p.District,
			Seller:      p.SellerName,
			Price:       p.Price,
			Quantity:    NewStepper(MinQuantity, MaxQuantity),
			visible:     true,
		}
		cards = append(cards, card)
		index[p.ID] = card
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cards = cards
	g.index = index
}

// Card returns the card for a product id
func (g *Grid) Card(productID string) (*Card, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	card, ok := g.index[productID]
	return card, ok
}

// Apply sets each card's visibility from match and returns the visible count
func (g *Grid) Apply(match func(c *Card) bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	visible := 0
	for _, card := range g.cards {
		card.visible = match(card)
		if card.visible {
			visible++
		}
	}
	return visible
}

// Cards returns a copy of every card in render order
func (g *Grid) Cards() []CardView {
	g.mu.RLock()
	defer g.mu.RUnlock()

	views := make([]CardView, 0, len(g.cards))
	for _, card := range g.cards {
		views = append(views, CardView{
			ProductID:   card.ProductID,
			Title:       card.Title,
			Description: card.Description,
			Category:    card.Category,
			District:    card.District,
			Seller:      card.Seller,
			Price:       card.Price,
			Quantity:    card.Quantity.Value(),
			Visible:     card.visible,
		})
	}
	return views
}

// Len returns the number of cards
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cards)
}
