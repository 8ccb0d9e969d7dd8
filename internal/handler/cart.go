package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/middleware"
)

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CartStore interface {
	UpsertCartItem(ctx context.Context, arg database.UpsertCartItemParams) (database.CartItem, error)
	SetCartItemQuantity(ctx context.Context, arg database.SetCartItemQuantityParams) (database.CartItem, error)
	DeleteCartItem(ctx context.Context, arg database.DeleteCartItemParams) error
	ListCartLines(ctx context.Context, userID uuid.UUID) ([]database.CartLine, error)
}

// CartHandler handles cart endpoints. All routes require authentication;
// every query is scoped to the caller's user ID from the JWT claims.
type CartHandler struct {
	store CartStore
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(store CartStore) *CartHandler {
	return &CartHandler{store: store}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{itemID}", h.SetQuantity)
	r.Delete("/cart/items/{itemID}", h.RemoveItem)
}

// --- Request / Response types ---

type addCartItemRequest struct {
	ItemID string `json:"item_id"`
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type cartLineResponse struct {
	ItemID   uuid.UUID `json:"item_id"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	ImageURL *string   `json:"image_url"`
	Quantity int32     `json:"quantity"`
	Subtotal string    `json:"subtotal"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

// --- Handlers ---

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	lines, err := h.store.ListCartLines(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list cart lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(lines))
}

// AddItem handles POST /cart/items. Adding an item already in the cart bumps
// its quantity by one instead of creating a duplicate line.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}

	_, err = h.store.UpsertCartItem(r.Context(), database.UpsertCartItemParams{
		UserID: claims.UserID,
		ItemID: itemID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: add cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithCart(w, r, claims.UserID, http.StatusOK)
}

// SetQuantity handles PUT /cart/items/{itemID}. A quantity of zero or less
// removes the line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Quantity <= 0 {
		if err := h.store.DeleteCartItem(r.Context(), database.DeleteCartItemParams{
			UserID: claims.UserID,
			ItemID: itemID,
		}); err != nil {
			log.Printf("ERROR: delete cart item: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		h.respondWithCart(w, r, claims.UserID, http.StatusOK)
		return
	}

	_, err = h.store.SetCartItemQuantity(r.Context(), database.SetCartItemQuantityParams{
		UserID:   claims.UserID,
		ItemID:   itemID,
		Quantity: req.Quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not in cart"})
			return
		}
		log.Printf("ERROR: set cart item quantity: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithCart(w, r, claims.UserID, http.StatusOK)
}

// RemoveItem handles DELETE /cart/items/{itemID}. Removing an absent line is
// not an error.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if err := h.store.DeleteCartItem(r.Context(), database.DeleteCartItemParams{
		UserID: claims.UserID,
		ItemID: itemID,
	}); err != nil {
		log.Printf("ERROR: remove cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithCart(w, r, claims.UserID, http.StatusOK)
}

// --- Helpers ---

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, userID uuid.UUID, status int) {
	lines, err := h.store.ListCartLines(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: list cart lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, toCartResponse(lines))
}

func toCartResponse(lines []database.CartLine) cartResponse {
	resp := cartResponse{Lines: make([]cartLineResponse, len(lines))}
	total := decimal.Zero
	for i, l := range lines {
		price := numericToDecimal(l.Price)
		subtotal := price.Mul(decimal.NewFromInt32(l.Quantity))
		total = total.Add(subtotal)
		lr := cartLineResponse{
			ItemID:   l.ItemID,
			Name:     l.Name,
			Price:    price.StringFixed(2),
			Quantity: l.Quantity,
			Subtotal: subtotal.StringFixed(2),
		}
		if l.ImageUrl.Valid {
			lr.ImageURL = &l.ImageUrl.String
		}
		resp.Lines[i] = lr
	}
	resp.Total = total.StringFixed(2)
	return resp
}
