package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/udyambharat/storefront-client/internal/metrics"
	"github.com/udyambharat/storefront-client/internal/protocol"
	"github.com/udyambharat/storefront-client/internal/view"
)

// Notification texts
const (
	MsgAdded          = "Product added to cart!"
	MsgAddFailed      = "Error adding to cart"
	MsgLoadFailed     = "Error loading cart"
	MsgOrderPlaced    = "Order placed successfully!"
	MsgCheckoutFailed = "Error during checkout"
	MsgRemoved        = "Item removed from cart"
	MsgRemoveFailed   = "Error removing from cart"
)

// Service is the cart backend
type Service interface {
	Add(ctx context.Context, productID string, quantity int) error
	Snapshot(ctx context.Context) (protocol.Snapshot, error)
	Remove(ctx context.Context, productID string) error
	Checkout(ctx context.Context) error
}

// Controller runs add, remove, checkout and reload against the page
type Controller struct {
	service Service
	page    *view.Page
	logger  *slog.Logger
	metrics *metrics.Metrics

	guard *Guard
	loads singleflight.Group
}

// NewController creates a controller. m may be nil.
func NewController(service Service, page *view.Page, logger *slog.Logger, m *metrics.Metrics) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		service: service,
		page:    page,
		logger:  logger,
		metrics: m,
		guard:   NewGuard(),
	}
}

// Add adds the product with the quantity shown on its card and reloads on success.
// A product without a rendered card is added with the minimum quantity.
func (c *Controller) Add(ctx context.Context, productID string) error {
	release, ok := c.acquire("add", "add:"+productID)
	if !ok {
		return ErrInFlight
	}
	defer release()

	quantity := view.MinQuantity
	if card, found := c.page.Grid.Card(productID); found {
		quantity = card.Quantity.Value()
	}

	if err := c.service.Add(ctx, productID, quantity); err != nil {
		c.fail("add", MsgAddFailed, err,
			slog.String("product_id", productID),
			slog.Int("quantity", quantity),
		)
		return fmt.Errorf("add %s: %w", productID, err)
	}

	c.succeed("add", MsgAdded, slog.String("product_id", productID), slog.Int("quantity", quantity))
	c.reload(ctx)
	return nil
}

// Remove deletes a product line and reloads on success
func (c *Controller) Remove(ctx context.Context, productID string) error {
	release, ok := c.acquire("remove", "remove:"+productID)
	if !ok {
		return ErrInFlight
	}
	defer release()

	if err := c.service.Remove(ctx, productID); err != nil {
		c.fail("remove", MsgRemoveFailed, err, slog.String("product_id", productID))
		return fmt.Errorf("remove %s: %w", productID, err)
	}

	c.succeed("remove", MsgRemoved, slog.String("product_id", productID))
	c.reload(ctx)
	return nil
}

// Checkout submits the order. A failed checkout leaves the panel as it is.
func (c *Controller) Checkout(ctx context.Context) error {
	release, ok := c.acquire("checkout", "checkout")
	if !ok {
		return ErrInFlight
	}
	defer release()

	if err := c.service.Checkout(ctx); err != nil {
		c.fail("checkout", MsgCheckoutFailed, err)
		return fmt.Errorf("checkout: %w", err)
	}

	c.succeed("checkout", MsgOrderPlaced, slog.Int("items", len(c.page.Cart.Items())))
	c.reload(ctx)
	return nil
}

// Load fetches the cart and replaces the panel. Concurrent loads share one request.
// A non-OK answer leaves the panel unchanged and is only logged; other failures notify.
func (c *Controller) Load(ctx context.Context) error {
	_, err, shared := c.loads.Do("cart", func() (interface{}, error) {
		snapshot, err := c.service.Snapshot(ctx)
		if err != nil {
			var statusErr *protocol.StatusError
			if errors.As(err, &statusErr) {
				c.logger.Warn("Cart load rejected",
					slog.Int("status", statusErr.StatusCode),
					slog.String("message", statusErr.Message),
				)
			} else {
				c.logger.Error("Cart load failed", slog.String("error", err.Error()))
				c.page.Board.Flash(view.KindError, MsgLoadFailed)
			}
			return nil, err
		}

		c.page.Cart.Replace(snapshot)

		total := c.page.Cart.Total()
		if c.metrics != nil {
			c.metrics.RecordCartSnapshot(len(snapshot), snapshot.Units(), total.InexactFloat64())
		}

		c.logger.Debug("Cart reloaded",
			slog.Int("items", len(snapshot)),
			slog.Int("units", snapshot.Units()),
			slog.String("total", total.StringFixed(2)),
		)
		return nil, nil
	})

	if shared {
		c.logger.Debug("Cart load coalesced")
	}

	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	return nil
}

// reload runs the unconditional post-mutation load; its failure is already surfaced by Load
func (c *Controller) reload(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		c.logger.Debug("Reload after mutation failed", slog.String("error", err.Error()))
	}
}

func (c *Controller) acquire(action, key string) (func(), bool) {
	release, ok := c.guard.Acquire(key)
	if !ok {
		c.logger.Debug("Duplicate cart action rejected", slog.String("key", key))
		if c.metrics != nil {
			c.metrics.RecordDuplicate(action)
		}
	}
	return release, ok
}

func (c *Controller) succeed(action, message string, attrs ...any) {
	c.page.Board.Flash(view.KindSuccess, message)
	if c.metrics != nil {
		c.metrics.RecordCartAction(action, "success")
	}
	c.logger.Info("Cart action succeeded", append([]any{slog.String("action", action)}, attrs...)...)
}

func (c *Controller) fail(action, fallback string, err error, attrs ...any) {
	c.page.Board.Flash(view.KindError, protocol.MessageFor(err, fallback))
	if c.metrics != nil {
		c.metrics.RecordCartAction(action, "error")
	}
	attrs = append([]any{slog.String("action", action), slog.String("error", err.Error())}, attrs...)
	c.logger.Warn("Cart action failed", attrs...)
}

// Pending reports whether the action key (add:<id>, remove:<id>, checkout) is in flight
func (c *Controller) Pending(key string) bool {
	return c.guard.Pending(key)
}
