package fakeshop

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/udyambharat/storefront-client/internal/audio"
	"github.com/udyambharat/storefront-client/internal/protocol"
)

// maxUploadSize bounds the multipart form parsed by the transcribe endpoint
const maxUploadSize = 10 << 20

// Transcript is the canned transcription answer
type Transcript struct {
	Text       string
	Confidence float64
}

// Stats counts requests served per endpoint
type Stats struct {
	Products    int `json:"products"`
	CartReads   int `json:"cart_reads"`
	CartAdds    int `json:"cart_adds"`
	CartRemoves int `json:"cart_removes"`
	Checkouts   int `json:"checkouts"`
	Transcribes int `json:"transcribes"`
}

// Upload describes the last audio upload received
type Upload struct {
	Filename    string
	ContentType string
	Size        int
	Language    string
	Duration    float64 // seconds, WAV uploads only
}

// Shop holds the catalog, one cart and the canned transcript
type Shop struct {
	products   []protocol.Product
	index      map[string]protocol.Product
	cart       []protocol.CartItem
	orders     []string
	transcript Transcript
	lastUpload Upload
	stats      Stats
	logger     *slog.Logger

	mu sync.Mutex
}

// New creates a shop selling products
func New(products []protocol.Product, logger *slog.Logger) *Shop {
	if logger == nil {
		logger = slog.Default()
	}

	index := make(map[string]protocol.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}

	return &Shop{
		products:   products,
		index:      index,
		transcript: Transcript{Text: "Handwoven cotton saree", Confidence: 0.92},
		logger:     logger,
	}
}

// SampleProducts returns a small handicraft catalog
func SampleProducts() []protocol.Product {
	return []protocol.Product{
		{ID: "p1", Name: "Handloom Saree", Description: "Cotton handloom saree with zari border",
			Price: decimal.NewFromInt(1200), Category: "textile", District: "Varanasi", SellerName: "Meera Weaves"},
		{ID: "p2", Name: "Terracotta Vase", Description: "Hand thrown terracotta vase",
			Price: decimal.NewFromInt(450), Category: "pottery", District: "Khurja", SellerName: "Clay Works"},
		{ID: "p3", Name: "Silk Dupatta", Description: "Banarasi silk dupatta, saree matching",
			Price: decimal.RequireFromString("799.50"), Category: "textile", District: "Varanasi", SellerName: "Meera Weaves"},
		{ID: "p4", Name: "Brass Diya", Description: "Hand cast brass oil lamp",
			Price: decimal.NewFromInt(250), Category: "metalwork", District: "Moradabad", SellerName: "Dhatu Crafts"},
	}
}

// SetTranscript changes the answer of the transcribe endpoint
func (s *Shop) SetTranscript(t Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = t
}

// Stats returns the request counters
func (s *Shop) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// LastUpload returns the last audio upload received
func (s *Shop) LastUpload() Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpload
}

// Orders returns the ids of placed orders
func (s *Shop) Orders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.orders...)
}

// Handler returns the HTTP routes of the shop
func (s *Shop) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get(protocol.PathProducts, s.handleProducts)
	router.Get(protocol.PathCart, s.handleGetCart)
	router.Post(protocol.PathCart, s.handleAddToCart)
	router.Delete(protocol.PathCart+"/{productID}", s.handleRemoveFromCart)
	router.Post(protocol.PathCheckout, s.handleCheckout)
	router.Post(protocol.PathTranscribe, s.handleTranscribe)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Shop) handleProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	district := r.URL.Query().Get("district")

	s.mu.Lock()
	s.stats.Products++
	out := make([]protocol.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		if district != "" && p.District != district {
			continue
		}
		out = append(out, p)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Shop) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.stats.CartReads++
	items := append([]protocol.CartItem{}, s.cart...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Shop) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req protocol.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CartAdds++

	product, ok := s.index[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	for i := range s.cart {
		if s.cart[i].ProductID == req.ProductID {
			s.cart[i].Quantity += req.Quantity
			writeJSON(w, http.StatusOK, map[string]string{"message": "Item added to cart successfully"})
			return
		}
	}

	s.cart = append(s.cart, protocol.CartItem{
		ProductID: product.ID,
		Quantity:  req.Quantity,
		Product: protocol.ProductRef{
			Name:     product.Name,
			ImageURL: product.ImageURL,
			Price:    product.Price,
		},
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item added to cart successfully"})
}

func (s *Shop) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CartRemoves++

	if len(s.cart) == 0 {
		writeError(w, http.StatusNotFound, "Cart not found")
		return
	}

	kept := s.cart[:0]
	for _, item := range s.cart {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.cart = kept

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart successfully"})
}

func (s *Shop) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Checkouts++

	if len(s.cart) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	orderID := uuid.NewString()
	s.orders = append(s.orders, orderID)
	s.logger.Info("Order placed",
		slog.String("order_id", orderID),
		slog.Int("items", len(s.cart)),
		slog.String("total", protocol.Snapshot(s.cart).Total().StringFixed(2)),
	)
	s.cart = nil

	writeJSON(w, http.StatusOK, map[string]string{"message": "Order placed successfully", "order_id": orderID})
}

func (s *Shop) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	file, header, err := r.FormFile(protocol.FieldAudio)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error reading audio file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	var duration float64
	if contentType == audio.MimeWAV {
		info, err := audio.GetWAVInfo(audioData)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid WAV audio")
			return
		}
		duration = info.Duration
	}

	language := r.FormValue(protocol.FieldLanguage)
	if language == "" {
		language = "en"
	}

	s.mu.Lock()
	s.stats.Transcribes++
	s.lastUpload = Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        len(audioData),
		Language:    language,
		Duration:    duration,
	}
	transcript := s.transcript
	s.mu.Unlock()

	s.logger.Info("Transcription request received",
		slog.String("filename", header.Filename),
		slog.Int("audio_size", len(audioData)),
		slog.Float64("duration", duration),
		slog.String("language", language),
	)

	writeJSON(w, http.StatusOK, protocol.TranscribeResponse{
		Transcript: transcript.Text,
		Confidence: transcript.Confidence,
		Language:   language,
	})
}
