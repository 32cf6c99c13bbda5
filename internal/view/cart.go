package view

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/udyambharat/storefront-client/internal/protocol"
)

// CartPanel shows the last fetched cart snapshot and its total
type CartPanel struct {
	items  protocol.Snapshot
	total  decimal.Decimal
	loaded bool
	mu     sync.RWMutex
}

// NewCartPanel creates an empty panel
func NewCartPanel() *CartPanel {
	return &CartPanel{items: protocol.Snapshot{}, total: decimal.Zero}
}

// Replace discards the displayed items and renders the snapshot; the total is recomputed from it
func (p *CartPanel) Replace(snapshot protocol.Snapshot) {
	items := make(protocol.Snapshot, len(snapshot))
	copy(items, snapshot)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
	p.total = items.Total()
	p.loaded = true
}

// Items returns a copy of the displayed items
func (p *CartPanel) Items() protocol.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	items := make(protocol.Snapshot, len(p.items))
	copy(items, p.items)
	return items
}

// Total returns the displayed total
func (p *CartPanel) Total() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total
}

// Loaded reports whether a snapshot has been rendered at least once
func (p *CartPanel) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}
