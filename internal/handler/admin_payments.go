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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/enum"
	"github.com/tiffinly/api/internal/ws"
)

// AdminPaymentStore defines the database methods needed by payment review handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminPaymentStore interface {
	ListPaymentProofs(ctx context.Context, status pgtype.Text) ([]database.ListPaymentProofsRow, error)
	UpdatePaymentProofStatus(ctx context.Context, arg database.UpdatePaymentProofStatusParams) (database.PaymentProof, error)
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

// AdminPaymentHandler handles manual payment proof review.
type AdminPaymentHandler struct {
	store AdminPaymentStore
	hub   Notifier
}

// NewAdminPaymentHandler creates a new AdminPaymentHandler.
func NewAdminPaymentHandler(store AdminPaymentStore, hub Notifier) *AdminPaymentHandler {
	return &AdminPaymentHandler{store: store, hub: hub}
}

// RegisterRoutes registers payment review endpoints. Expected to be mounted
// inside an admin-only subrouter.
func (h *AdminPaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payments", h.List)
	r.Post("/payments/{id}/approve", h.Approve)
	r.Post("/payments/{id}/reject", h.Reject)
}

// --- Response types ---

type adminProofResponse struct {
	proofResponse
	UserID        uuid.UUID `json:"user_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
}

// --- Handlers ---

// List handles GET /admin/payments. Defaults to Pending proofs; ?status=
// selects another bucket.
func (h *AdminPaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	status := pgtype.Text{String: enum.ProofStatusPending, Valid: true}
	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidProofStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		status = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListPaymentProofs(r.Context(), status)
	if err != nil {
		log.Printf("ERROR: list payment proofs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]adminProofResponse, len(rows))
	for i, row := range rows {
		resp[i] = adminProofResponse{
			proofResponse: proofResponse{
				ID:            row.Proof.ID,
				OrderID:       row.Proof.OrderID,
				TransactionID: row.Proof.TransactionID,
				ScreenshotURL: row.Proof.ScreenshotUrl,
				Status:        string(row.Proof.Status),
			},
			UserID:        row.Proof.UserID,
			CustomerName:  row.CustomerName,
			CustomerEmail: row.CustomerEmail,
		}
	}
	writeJSON(w, http.StatusOK, map[string][]adminProofResponse{"payments": resp})
}

// Approve handles POST /admin/payments/{id}/approve.
func (h *AdminPaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, database.ProofStatusApproved, "Your payment has been verified.")
}

// Reject handles POST /admin/payments/{id}/reject.
func (h *AdminPaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, database.ProofStatusRejected, "Your payment could not be verified. Please resubmit or contact us.")
}

// --- Helpers ---

// resolve moves a proof out of Pending. The UPDATE only matches Pending rows,
// so re-resolving an already-settled proof is a conflict.
func (h *AdminPaymentHandler) resolve(w http.ResponseWriter, r *http.Request, status database.ProofStatus, message string) {
	proofID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	proof, err := h.store.UpdatePaymentProofStatus(r.Context(), database.UpdatePaymentProofStatusParams{
		ID:     proofID,
		Status: status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "payment is not pending review"})
			return
		}
		log.Printf("ERROR: update payment proof status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notify(r.Context(), proof, message)

	writeJSON(w, http.StatusOK, proofResponse{
		ID:            proof.ID,
		OrderID:       proof.OrderID,
		TransactionID: proof.TransactionID,
		ScreenshotURL: proof.ScreenshotUrl,
		Status:        string(proof.Status),
	})
}

func (h *AdminPaymentHandler) notify(ctx context.Context, proof database.PaymentProof, message string) {
	note, err := h.store.CreateNotification(ctx, database.CreateNotificationParams{
		UserID:  proof.UserID,
		OrderID: pgtype.UUID{Bytes: proof.OrderID, Valid: true},
		Message: message,
	})
	if err != nil {
		log.Printf("ERROR: create notification: %v", err)
		return
	}

	payload, err := json.Marshal(map[string]string{
		"notification_id": note.ID.String(),
		"order_id":        proof.OrderID.String(),
		"proof_status":    string(proof.Status),
		"message":         message,
	})
	if err != nil {
		log.Printf("ERROR: marshal notification payload: %v", err)
		return
	}
	h.hub.BroadcastToUser(proof.UserID, ws.Event{
		Type:    "payment_status",
		Payload: payload,
	})
}

func isValidProofStatus(s string) bool {
	switch s {
	case enum.ProofStatusPending,
		enum.ProofStatusApproved,
		enum.ProofStatusRejected:
		return true
	}
	return false
}
