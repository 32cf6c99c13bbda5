package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/udyambharat/storefront-client/internal/httpclient"
	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/protocol"
	"github.com/udyambharat/storefront-client/internal/view"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func testProducts() []protocol.Product {
	return []protocol.Product{
		{ID: "1", Name: "Handloom Saree", Description: "Pure cotton from Chanderi", Category: "textile", Price: decimal.NewFromInt(1200)},
		{ID: "2", Name: "Terracotta Vase", Description: "Hand thrown", Category: "pottery", Price: decimal.NewFromInt(450)},
		{ID: "3", Name: "Silk Stole", Description: "Woven like a SAREE border", Category: "textile", Price: decimal.NewFromInt(800)},
	}
}

func visibleIDs(grid *view.Grid) []string {
	var ids []string
	for _, card := range grid.Cards() {
		if card.Visible {
			ids = append(ids, card.ProductID)
		}
	}
	return ids
}

func TestMatches(t *testing.T) {
	saree := &view.Card{Title: "Handloom Saree", Description: "Pure cotton", Category: "textile"}

	tests := []struct {
		name     string
		term     string
		category string
		want     bool
	}{
		{name: "title match no category", term: "saree", category: "", want: true},
		{name: "case insensitive", term: "HANDLOOM", category: "", want: true},
		{name: "description match", term: "cotton", category: "", want: true},
		{name: "matching category", term: "saree", category: "textile", want: true},
		{name: "other category hides", term: "saree", category: "pottery", want: false},
		{name: "other category hides empty term", term: "", category: "pottery", want: false},
		{name: "category is case sensitive", term: "", category: "Textile", want: false},
		{name: "no text match", term: "vase", category: "", want: false},
		{name: "empty term shows all", term: "", category: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(saree, tt.term, tt.category); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.term, tt.category, got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	grid := view.NewGrid()
	grid.Replace(testProducts())

	if n := Apply(grid, "saree", ""); n != 2 {
		t.Errorf("Expected 2 visible, got %d (%v)", n, visibleIDs(grid))
	}

	if n := Apply(grid, "saree", "pottery"); n != 0 {
		t.Errorf("Expected 0 visible, got %d", n)
	}

	if n := Apply(grid, "", "pottery"); n != 1 {
		t.Errorf("Expected 1 visible, got %d", n)
	}
}

func TestDebouncerRunsOnceAfterQuiet(t *testing.T) {
	mock := clock.NewMock()
	d := NewDebouncer(mock, 300*time.Millisecond)
	defer d.Stop()

	var calls int32
	fn := func() { atomic.AddInt32(&calls, 1) }

	d.Trigger(fn)
	mock.Add(200 * time.Millisecond)
	d.Trigger(fn)
	mock.Add(200 * time.Millisecond)

	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("Debounced call fired before the quiet period")
	}

	mock.Add(100 * time.Millisecond)
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, "debounced call")

	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected exactly 1 call, got %d", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	mock := clock.NewMock()
	d := NewDebouncer(mock, 300*time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })

	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("Expected no calls after Stop, got %d", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	mock := clock.NewMock()
	d := NewDebouncer(mock, 300*time.Millisecond)
	defer d.Stop()

	var calls int32
	fn := func() { atomic.AddInt32(&calls, 1) }

	if d.Flush(fn) {
		t.Error("Expected Flush without a pending call to do nothing")
	}

	d.Trigger(fn)
	if !d.Flush(fn) {
		t.Error("Expected Flush to run the pending call")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 call after Flush, got %d", got)
	}

	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected flushed call not to fire again, got %d calls", got)
	}
}

func TestSearchBindsPageInputs(t *testing.T) {
	mock := clock.NewMock()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	page := view.NewPage(view.PageConfig{Clock: mock})
	defer page.Close()
	page.Grid.Replace(testProducts())

	search := NewSearch(page, mock, 300*time.Millisecond, testLogger, m)
	defer search.Close()

	page.Search.Assign("saree")
	if len(visibleIDs(page.Grid)) != 3 {
		t.Fatal("Keystroke must not filter before the debounce delay")
	}

	mock.Add(300 * time.Millisecond)
	waitFor(t, func() bool { return len(visibleIDs(page.Grid)) == 2 }, "debounced filter")

	// category changes apply without waiting
	page.Category.Assign("pottery")
	if ids := visibleIDs(page.Grid); len(ids) != 0 {
		t.Errorf("Expected no visible cards, got %v", ids)
	}

	page.Category.Assign("")
	if ids := visibleIDs(page.Grid); len(ids) != 2 {
		t.Errorf("Expected 2 visible cards, got %v", ids)
	}

	if got := testutil.ToFloat64(m.SearchesApplied); got != 3 {
		t.Errorf("Expected 3 filter passes, got %f", got)
	}
}

func TestListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("category"); got != "textile" {
			t.Errorf("Expected category textile, got %q", got)
		}
		if r.URL.Query().Has("district") {
			t.Error("Empty district must not be sent")
		}
		_, _ = w.Write([]byte(`[{"_id":"1","name":"Handloom Saree","description":"cotton","price":1200.5,"category":"textile","seller_name":"Asha"}]`))
	}))
	defer server.Close()

	transport, err := httpclient.New(httpclient.Config{BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	client, err := NewClient(transport)
	if err != nil {
		t.Fatal(err)
	}

	products, err := client.List(context.Background(), Query{Category: "textile"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(products) != 1 || products[0].SellerName != "Asha" {
		t.Fatalf("Unexpected products %+v", products)
	}

	if !products[0].Price.Equal(decimal.RequireFromString("1200.5")) {
		t.Errorf("Expected price 1200.5, got %s", products[0].Price)
	}
}

func TestListProductsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
	}))
	defer server.Close()

	transport, _ := httpclient.New(httpclient.Config{BaseURL: server.URL}, nil)
	client, _ := NewClient(transport)

	_, err := client.List(context.Background(), Query{})
	if protocol.MessageFor(err, "") != "database unavailable" {
		t.Errorf("Expected server message, got %v", err)
	}

	var statusErr *protocol.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 StatusError, got %v", err)
	}
}
