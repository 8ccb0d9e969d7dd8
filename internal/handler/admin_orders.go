package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/enum"
	"github.com/tiffinly/api/internal/ws"
)

// AdminOrderStore defines the database methods needed by admin order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminOrderStore interface {
	ListOrders(ctx context.Context, status pgtype.Text) ([]database.ListOrdersRow, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

// Notifier pushes events to a user's live connections.
// Satisfied by *ws.Hub.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event ws.Event)
}

// AdminOrderHandler handles admin order management endpoints.
type AdminOrderHandler struct {
	store AdminOrderStore
	hub   Notifier
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(store AdminOrderStore, hub Notifier) *AdminOrderHandler {
	return &AdminOrderHandler{store: store, hub: hub}
}

// RegisterRoutes registers admin order endpoints. Expected to be mounted
// inside an admin-only subrouter.
func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders/{id}/accept", h.Accept)
	r.Post("/orders/{id}/reject", h.Reject)
	r.Post("/orders/{id}/complete", h.Complete)
}

// --- Request / Response types ---

type rejectOrderRequest struct {
	Reason string `json:"reason"`
}

type adminOrderResponse struct {
	orderResponse
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	TransactionID *string `json:"transaction_id"`
}

// --- Handlers ---

// List handles GET /admin/orders, every order joined to its customer,
// optionally filtered with ?status=.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := pgtype.Text{}
	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		status = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListOrders(r.Context(), status)
	if err != nil {
		log.Printf("ERROR: list admin orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]adminOrderResponse, len(rows))
	for i, row := range rows {
		ar := adminOrderResponse{
			orderResponse: dbOrderToResponse(row.Order),
			CustomerName:  row.CustomerName,
			CustomerEmail: row.CustomerEmail,
		}
		if row.TransactionID.Valid {
			ar.TransactionID = &row.TransactionID.String
		}
		resp[i] = ar
	}
	writeJSON(w, http.StatusOK, map[string][]adminOrderResponse{"orders": resp})
}

// Accept handles POST /admin/orders/{id}/accept (pending -> accepted).
func (h *AdminOrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, database.OrderStatusPending, database.OrderStatusAccepted, pgtype.Text{},
		"Your order has been accepted.")
}

// Reject handles POST /admin/orders/{id}/reject (pending -> rejected).
// A non-blank reason is required.
func (h *AdminOrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}

	h.transition(w, r, database.OrderStatusPending, database.OrderStatusRejected,
		pgtype.Text{String: reason, Valid: true},
		"Your order was rejected: "+reason)
}

// Complete handles POST /admin/orders/{id}/complete (accepted -> completed).
func (h *AdminOrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, database.OrderStatusAccepted, database.OrderStatusCompleted, pgtype.Text{},
		"Your order has been completed. Enjoy!")
}

// --- Helpers ---

// transition performs a guarded status update. The UPDATE matches the
// expected prior status, so a concurrent transition (or one attempted from a
// terminal state) updates zero rows and surfaces as a conflict.
func (h *AdminOrderHandler) transition(w http.ResponseWriter, r *http.Request, from, to database.OrderStatus, reason pgtype.Text, message string) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:              orderID,
		Status:          to,
		RejectionReason: reason,
		PrevStatus:      from,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Zero rows: the order is missing or not in the expected state.
			// Fetch to give a better error message.
			current, fetchErr := h.store.GetOrder(r.Context(), orderID)
			if fetchErr != nil {
				if errors.Is(fetchErr, pgx.ErrNoRows) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
					return
				}
				log.Printf("ERROR: get order for transition: %v", fetchErr)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": fmt.Sprintf("cannot move a %s order to %s", current.Status, to),
			})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notify(r.Context(), updated, message)

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// notify records a notification row and pushes it to the customer's open
// connections. Failures are logged, never surfaced: the transition already
// happened.
func (h *AdminOrderHandler) notify(ctx context.Context, order database.Order, message string) {
	note, err := h.store.CreateNotification(ctx, database.CreateNotificationParams{
		UserID:  order.UserID,
		OrderID: pgtype.UUID{Bytes: order.ID, Valid: true},
		Message: message,
	})
	if err != nil {
		log.Printf("ERROR: create notification: %v", err)
		return
	}

	payload, err := json.Marshal(map[string]string{
		"notification_id": note.ID.String(),
		"order_id":        order.ID.String(),
		"status":          string(order.Status),
		"message":         message,
	})
	if err != nil {
		log.Printf("ERROR: marshal notification payload: %v", err)
		return
	}
	h.hub.BroadcastToUser(order.UserID, ws.Event{
		Type:    "order_status",
		Payload: payload,
	})
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending,
		enum.OrderStatusAccepted,
		enum.OrderStatusRejected,
		enum.OrderStatusCompleted:
		return true
	}
	return false
}
