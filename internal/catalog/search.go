package catalog

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/view"
)

// DefaultSearchDebounce is the quiet period after the last keystroke
const DefaultSearchDebounce = 300 * time.Millisecond

// Search binds the page's search input and category filter to the grid
type Search struct {
	page     *view.Page
	debounce *Debouncer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSearch registers input listeners: keystrokes are debounced, category changes apply at once.
// m may be nil.
func NewSearch(page *view.Page, clk clock.Clock, delay time.Duration, logger *slog.Logger, m *metrics.Metrics) *Search {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Search{
		page:     page,
		debounce: NewDebouncer(clk, delay),
		logger:   logger,
		metrics:  m,
	}

	page.Search.OnInput(func(string) {
		s.debounce.Trigger(s.Apply)
	})
	page.Category.OnInput(func(string) {
		s.Apply()
	})

	return s
}

// Apply filters the grid with the current search text and category
func (s *Search) Apply() {
	term := s.page.Search.Value()
	category := s.page.Category.Value()

	visible := Apply(s.page.Grid, term, category)
	if s.metrics != nil {
		s.metrics.RecordSearch()
	}

	s.logger.Debug("Product filter applied",
		slog.String("term", term),
		slog.String("category", category),
		slog.Int("visible", visible),
		slog.Int("total", s.page.Grid.Len()),
	)
}

// Flush applies a pending debounced filter now
func (s *Search) Flush() {
	s.debounce.Flush(s.Apply)
}

// Close cancels a pending debounced filter
func (s *Search) Close() {
	s.debounce.Stop()
}
