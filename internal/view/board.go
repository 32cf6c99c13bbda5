package view

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/udyambharat/storefront-client/internal/metrics"
)

// Notice kinds
const (
	KindSuccess = "success"
	KindError   = "error"
	KindStatus  = "status"
)

// DefaultNoticeTTL is how long a finished notice stays on screen
const DefaultNoticeTTL = 3 * time.Second

// Notice is a transient message shown on the page
type Notice struct {
	ID        uint64
	Kind      string
	Text      string
	Anchor    string // trigger target a status notice is attached to
	CreatedAt time.Time
}

type notice struct {
	Notice
	timer *clock.Timer
}

// Board owns notifications and voice status notices.
// Every notice with a removal timer is removed exactly ttl after the timer was armed.
type Board struct {
	clock   clock.Clock
	ttl     time.Duration
	metrics *metrics.Metrics

	notices map[uint64]*notice
	nextID  uint64
	closed  bool

	mu sync.Mutex
}

// NewBoard creates a board. m may be nil.
func NewBoard(clk clock.Clock, ttl time.Duration, m *metrics.Metrics) *Board {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Board{
		clock:   clk,
		ttl:     ttl,
		metrics: m,
		notices: make(map[uint64]*notice),
	}
}

// Flash shows a notification that removes itself ttl after insertion
func (b *Board) Flash(kind, text string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.insert(kind, text, "")
	b.arm(n)
	return n.ID
}

// Show adds a status notice anchored to a trigger; it stays until Expire or Remove
func (b *Board) Show(anchor, text string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.insert(KindStatus, text, anchor).ID
}

// Update replaces the text of a notice still on the board
func (b *Board) Update(id uint64, text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.notices[id]
	if !ok {
		return false
	}
	n.Text = text
	return true
}

// Expire schedules removal of a notice ttl from now, replacing any earlier schedule
func (b *Board) Expire(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.notices[id]
	if !ok {
		return false
	}
	b.arm(n)
	return true
}

// Remove deletes a notice immediately
func (b *Board) Remove(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.notices[id]
	if !ok {
		return false
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	delete(b.notices, id)
	return true
}

// Notices returns the notices on the board in insertion order
func (b *Board) Notices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notice, 0, len(b.notices))
	for _, n := range b.notices {
		out = append(out, n.Notice)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a single notice
func (b *Board) Get(id uint64) (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.notices[id]
	if !ok {
		return Notice{}, false
	}
	return n.Notice, true
}

// Close stops every pending removal timer and clears the board
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, n := range b.notices {
		if n.timer != nil {
			n.timer.Stop()
		}
		delete(b.notices, id)
	}
	b.closed = true
}

func (b *Board) insert(kind, text, anchor string) *notice {
	b.nextID++
	n := &notice{Notice: Notice{
		ID:        b.nextID,
		Kind:      kind,
		Text:      text,
		Anchor:    anchor,
		CreatedAt: b.clock.Now(),
	}}

	if b.closed {
		// a closed board accepts nothing; the notice is returned but never shown
		return n
	}

	b.notices[n.ID] = n
	if b.metrics != nil {
		b.metrics.RecordNotification(kind)
	}
	return n
}

func (b *Board) arm(n *notice) {
	if b.closed {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}

	id := n.ID
	var timer *clock.Timer
	timer = b.clock.AfterFunc(b.ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		// a rearmed notice has a newer timer
		if current, ok := b.notices[id]; ok && current.timer == timer {
			delete(b.notices, id)
		}
	})
	n.timer = timer
}
