package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/udyambharat/storefront-client/internal/httpclient"
	"github.com/udyambharat/storefront-client/internal/protocol"
)

// Query narrows a product listing server-side
type Query struct {
	Category string
	District string
}

// values encodes the non-empty query parameters
func (q Query) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.District != "" {
		v.Set("district", q.District)
	}
	return v
}

// Client lists products
type Client struct {
	transport httpclient.Doer
}

// NewClient creates a catalog client
func NewClient(transport httpclient.Doer) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	return &Client{transport: transport}, nil
}

// List fetches the products matching q
func (c *Client) List(ctx context.Context, q Query) ([]protocol.Product, error) {
	resp, err := c.transport.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   protocol.PathProducts,
		Query:  q.values(),
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return protocol.ParseProducts(resp.Body)
}
