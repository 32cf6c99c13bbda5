package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/udyambharat/storefront-client/internal/httpclient"
	"github.com/udyambharat/storefront-client/internal/protocol"
)

// Client calls the cart and checkout endpoints
type Client struct {
	transport httpclient.Doer
}

// NewClient creates a cart client
func NewClient(transport httpclient.Doer) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	return &Client{transport: transport}, nil
}

// Add posts {product_id, quantity}
func (c *Client) Add(ctx context.Context, productID string, quantity int) error {
	req := protocol.AddItemRequest{ProductID: productID, Quantity: quantity}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid add request: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode add request: %w", err)
	}

	_, err = c.transport.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		Path:        protocol.PathCart,
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
	})
	return err
}

// Snapshot fetches the authoritative cart
func (c *Client) Snapshot(ctx context.Context) (protocol.Snapshot, error) {
	resp, err := c.transport.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   protocol.PathCart,
	})
	if err != nil {
		return nil, err
	}
	return protocol.ParseSnapshot(resp.Body)
}

// Remove deletes one product line from the cart
func (c *Client) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("product_id cannot be empty")
	}

	_, err := c.transport.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   protocol.PathCart + "/" + url.PathEscape(productID),
	})
	return err
}

// Checkout posts an empty checkout request
func (c *Client) Checkout(ctx context.Context) error {
	_, err := c.transport.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   protocol.PathCheckout,
	})
	return err
}
