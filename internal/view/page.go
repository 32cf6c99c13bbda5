package view

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/udyambharat/storefront-client/internal/metrics"
)

// Alerter raises a blocking notice the user must acknowledge
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter
type AlertFunc func(message string)

// Alert calls f(message)
func (f AlertFunc) Alert(message string) {
	f(message)
}

// AlertLog records alerts; the terminal client prints and drains it after each command
type AlertLog struct {
	messages []string
	mu       sync.Mutex
}

// Alert appends message
func (l *AlertLog) Alert(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, message)
}

// Drain returns and clears the pending alerts
func (l *AlertLog) Drain() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.messages
	l.messages = nil
	return out
}

// PageConfig describes the page layout
type PageConfig struct {
	VoiceFields     []string // ids of the text fields that carry a voice trigger
	DefaultLanguage string
	NoticeTTL       time.Duration
	Clock           clock.Clock
	Alerter         Alerter
	Metrics         *metrics.Metrics
}

// Page is the bound view model
type Page struct {
	Form     *Form
	Triggers map[string]*Trigger
	Grid     *Grid
	Cart     *CartPanel
	Board    *Board
	Search   *Field
	Category *Field
	Language *Field
	Alerts   Alerter
}

// NewPage builds every page component once
func NewPage(config PageConfig) *Page {
	language := config.DefaultLanguage
	if language == "" {
		language = "en"
	}

	alerter := config.Alerter
	if alerter == nil {
		alerter = &AlertLog{}
	}

	form := NewForm(config.VoiceFields...)
	triggers := make(map[string]*Trigger, len(config.VoiceFields))
	for _, id := range config.VoiceFields {
		triggers[id] = &Trigger{Target: id}
	}

	return &Page{
		Form:     form,
		Triggers: triggers,
		Grid:     NewGrid(),
		Cart:     NewCartPanel(),
		Board:    NewBoard(config.Clock, config.NoticeTTL, config.Metrics),
		Search:   NewField("searchInput", ""),
		Category: NewField("categoryFilter", ""),
		Language: NewField("voiceLanguage", language),
		Alerts:   alerter,
	}
}

// Trigger returns the voice trigger bound to a target field
func (p *Page) Trigger(target string) (*Trigger, bool) {
	t, ok := p.Triggers[target]
	return t, ok
}

// Close cancels notice timers
func (p *Page) Close() {
	p.Board.Close()
}
