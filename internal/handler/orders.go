package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/middleware"
	"github.com/tiffinly/api/internal/service"
)

// CheckoutServicer defines the service methods needed by order handlers.
// Satisfied by *service.CheckoutService; narrow interface for testability.
type CheckoutServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// OrderStore defines the database methods needed by customer order reads.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]database.Order, error)
	GetOrderForUser(ctx context.Context, arg database.GetOrderForUserParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetPaymentProofByOrder(ctx context.Context, orderID uuid.UUID) (database.PaymentProof, error)
}

// OrderHandler handles the customer-facing order endpoints.
type OrderHandler struct {
	svc   CheckoutServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc CheckoutServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Checkout)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
}

// --- Request / Response types ---

type checkoutRequest struct {
	Address string `json:"address"`
}

type orderResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Address         string    `json:"address"`
	TotalAmount     string    `json:"total_amount"`
	PaymentMethod   *string   `json:"payment_method"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejection_reason"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	Name     string    `json:"name"`
	Quantity int32     `json:"quantity"`
	Price    string    `json:"price"`
}

type proofSummaryResponse struct {
	TransactionID string `json:"transaction_id"`
	ScreenshotURL string `json:"screenshot_url"`
	Status        string `json:"status"`
}

// orderDetailResponse extends orderResponse with items and, when submitted,
// the payment proof.
type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse   `json:"items"`
	Proof *proofSummaryResponse `json:"payment_proof,omitempty"`
}

// --- Handlers ---

// Checkout handles POST /orders: turns the caller's cart into an order.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		UserID:  claims.UserID,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, service.ErrBlankAddress) || errors.Is(err, service.ErrEmptyCart) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{
		orderResponse: dbOrderToResponse(result.Order),
		Items:         make([]orderItemResponse, len(result.Items)),
	}
	for i, item := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders, the caller's order history, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders, err := h.store.ListOrdersByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, map[string][]orderResponse{"orders": resp})
}

// Get handles GET /orders/{id}. Scoped to the caller: another user's order
// reads as not found.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrderForUser(r.Context(), database.GetOrderForUserParams{
		ID:     orderID,
		UserID: claims.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{
		orderResponse: dbOrderToResponse(order),
		Items:         make([]orderItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}

	proof, err := h.store.GetPaymentProofByOrder(r.Context(), orderID)
	if err == nil {
		resp.Proof = &proofSummaryResponse{
			TransactionID: proof.TransactionID,
			ScreenshotURL: proof.ScreenshotUrl,
			Status:        string(proof.Status),
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: get payment proof: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Address:     o.Address,
		TotalAmount: numericToString(o.TotalAmount),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.RejectionReason.Valid {
		resp.RejectionReason = &o.RejectionReason.String
	}
	return resp
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:       item.ID,
		ItemID:   item.ItemID,
		Name:     item.NameSnapshot,
		Quantity: item.Quantity,
		Price:    numericToString(item.Price),
	}
}
