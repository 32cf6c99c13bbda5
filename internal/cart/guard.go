package cart

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when the same action is already pending
var ErrInFlight = errors.New("action already in progress")

// Guard tracks pending actions by resource key
type Guard struct {
	pending map[string]struct{}
	mu      sync.Mutex
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{pending: make(map[string]struct{})}
}

// Acquire marks key as pending. It returns false when key is already pending;
// otherwise the returned release must be called when the action completes.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.pending[key]; busy {
		return nil, false
	}
	g.pending[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, true
}

// Pending reports whether key is pending
func (g *Guard) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.pending[key]
	return busy
}
