package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Service paths consumed by the client
const (
	PathCart       = "/api/cart"
	PathCheckout   = "/api/checkout"
	PathTranscribe = "/api/voice/transcribe"
	PathProducts   = "/api/products"

	// Multipart field names for the transcription upload
	FieldAudio    = "audio"
	FieldLanguage = "language"
)

// ProductRef is the product summary embedded in a cart item
type ProductRef struct {
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
}

// CartItem is a single server-owned cart line
type CartItem struct {
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Product   ProductRef `json:"product"`
}

// LineTotal returns price × quantity for the item
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DisplayName returns the product name, falling back to the product id
func (i CartItem) DisplayName() string {
	if i.Product.Name != "" {
		return i.Product.Name
	}
	return i.ProductID
}

// Snapshot is the full cart as returned by the service at one point in time
type Snapshot []CartItem

// Total sums price × quantity over every item of the snapshot
func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Units returns the number of units across all items
func (s Snapshot) Units() int {
	n := 0
	for _, item := range s {
		n += item.Quantity
	}
	return n
}

// snapshotEnvelope is the {"items": [...]} shape some deployments return
type snapshotEnvelope struct {
	Items Snapshot `json:"items"`
}

// ParseSnapshot decodes a cart body. Both the bare array and the items envelope are accepted.
func ParseSnapshot(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty cart body")
	}

	// a nil slice encodes as null
	if bytes.Equal(trimmed, []byte("null")) {
		return Snapshot{}, nil
	}

	var snapshot Snapshot
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to parse cart array: %w", err)
		}
	case '{':
		var env snapshotEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("failed to parse cart envelope: %w", err)
		}
		snapshot = env.Items
	default:
		return nil, fmt.Errorf("unexpected cart body starting with %q", trimmed[0])
	}

	for idx, item := range snapshot {
		if err := ValidateCartItem(item); err != nil {
			return nil, fmt.Errorf("cart item %d: %w", idx, err)
		}
	}

	if snapshot == nil {
		snapshot = Snapshot{}
	}
	return snapshot, nil
}

// ValidateCartItem checks the fields the client relies on
func ValidateCartItem(item CartItem) error {
	if item.ProductID == "" {
		return fmt.Errorf("missing product_id")
	}
	if item.Quantity < 0 {
		return fmt.Errorf("negative quantity %d for product %s", item.Quantity, item.ProductID)
	}
	return nil
}

// AddItemRequest is the JSON body of POST /api/cart
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Validate validates the add request before it is sent
func (r AddItemRequest) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("product_id cannot be empty")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", r.Quantity)
	}
	return nil
}

// TranscribeResponse is the JSON body returned by the transcription endpoint
type TranscribeResponse struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// ConfidencePercent returns the confidence rounded to a whole percentage
func (r TranscribeResponse) ConfidencePercent() int {
	return int(math.Round(r.Confidence * 100))
}

// ParseTranscribeResponse decodes a transcription body and rejects empty transcripts
func ParseTranscribeResponse(data []byte) (*TranscribeResponse, error) {
	var resp TranscribeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse transcription JSON: %w", err)
	}

	if resp.Transcript == "" {
		return nil, ErrEmptyTranscript
	}

	return &resp, nil
}

// Product is a catalog entry as listed by GET /api/products
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	District    string          `json:"district,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	SellerName  string          `json:"seller_name,omitempty"`
}

// ParseProducts decodes a product listing
func ParseProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse product list: %w", err)
	}

	for idx, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %d: missing _id", idx)
		}
	}

	return products, nil
}
