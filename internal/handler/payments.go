package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/enum"
	"github.com/tiffinly/api/internal/middleware"
	"github.com/tiffinly/api/internal/service"
)

// maxScreenshotBytes caps payment proof uploads at 5 MiB.
const maxScreenshotBytes = 5 << 20

// PaymentStore defines the database methods needed by payment handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PaymentStore interface {
	GetOrderForUser(ctx context.Context, arg database.GetOrderForUserParams) (database.Order, error)
	SetOrderPayment(ctx context.Context, arg database.SetOrderPaymentParams) (database.Order, error)
	CreatePaymentProof(ctx context.Context, arg database.CreatePaymentProofParams) (database.PaymentProof, error)
}

// ProofStorage persists uploaded payment screenshots.
// Satisfied by *storage.LocalStore.
type ProofStorage interface {
	Save(relPath string, r io.Reader) error
	PublicURL(relPath string) string
}

// PaymentHandler handles payment method selection and proof submission.
type PaymentHandler struct {
	store          PaymentStore
	files          ProofStorage
	gatewayEnabled bool
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(store PaymentStore, files ProofStorage, gatewayEnabled bool) *PaymentHandler {
	return &PaymentHandler{store: store, files: files, gatewayEnabled: gatewayEnabled}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/{id}/payment/quote", h.Quote)
	r.Post("/orders/{id}/payment", h.Confirm)
	r.Post("/orders/{id}/payment/proof", h.SubmitProof)
}

// --- Request / Response types ---

type confirmPaymentRequest struct {
	Method string `json:"method"`
}

type quoteResponse struct {
	Method      string `json:"method"`
	BaseAmount  string `json:"base_amount"`
	FinalAmount string `json:"final_amount"`
}

type proofResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	ScreenshotURL string    `json:"screenshot_url"`
	Status        string    `json:"status"`
}

// --- Handlers ---

// Quote handles GET /orders/{id}/payment/quote?method=M. Read-only: shows the
// fee-adjusted amount without committing the order to a method.
func (h *PaymentHandler) Quote(w http.ResponseWriter, r *http.Request) {
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

	method := r.URL.Query().Get("method")
	if method == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "method is required"})
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
		log.Printf("ERROR: get order for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	base := numericToDecimal(order.TotalAmount)
	final, err := service.FinalAmount(method, base)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown payment method"})
		return
	}

	if method == enum.PaymentMethodOnlineGateway && !h.gatewayEnabled {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "online payments are temporarily unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Method:      method,
		BaseAmount:  base.StringFixed(2),
		FinalAmount: final.StringFixed(2),
	})
}

// Confirm handles POST /orders/{id}/payment: locks the chosen method in and
// stores the fee-adjusted total. A method can be confirmed exactly once, and
// only while the order is pending.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
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

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Method == enum.PaymentMethodOnlineGateway && !h.gatewayEnabled {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "online payments are temporarily unavailable"})
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
		log.Printf("ERROR: get order for payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	final, err := service.FinalAmount(req.Method, numericToDecimal(order.TotalAmount))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown payment method"})
		return
	}

	updated, err := h.store.SetOrderPayment(r.Context(), database.SetOrderPaymentParams{
		ID:            orderID,
		PaymentMethod: database.PaymentMethod(req.Method),
		TotalAmount:   decimalToNumeric(final),
		UserID:        claims.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Zero rows means the order already has a method or left pending.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "payment method already confirmed"})
			return
		}
		log.Printf("ERROR: set order payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// SubmitProof handles POST /orders/{id}/payment/proof, a multipart form with
// a transaction_id field and a screenshot file. One proof per order.
func (h *PaymentHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("ERROR: get order for proof: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Proofs only make sense for bank transfers.
	if !order.PaymentMethod.Valid || order.PaymentMethod.String != enum.PaymentMethodDirectTransfer {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is not paid by direct transfer"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScreenshotBytes)
	if err := r.ParseMultipartForm(maxScreenshotBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	transactionID := strings.TrimSpace(r.FormValue("transaction_id"))
	if transactionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "transaction_id is required"})
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "screenshot is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "screenshot must be an image"})
		return
	}

	relPath := fmt.Sprintf("proofs/%s/%s%s", claims.UserID, orderID, ext)
	if err := h.files.Save(relPath, file); err != nil {
		log.Printf("ERROR: save proof screenshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	proof, err := h.store.CreatePaymentProof(r.Context(), database.CreatePaymentProofParams{
		OrderID:       orderID,
		UserID:        claims.UserID,
		TransactionID: transactionID,
		ScreenshotUrl: h.files.PublicURL(relPath),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "proof already submitted for this order"})
			return
		}
		log.Printf("ERROR: create payment proof: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, proofResponse{
		ID:            proof.ID,
		OrderID:       proof.OrderID,
		TransactionID: proof.TransactionID,
		ScreenshotURL: proof.ScreenshotUrl,
		Status:        string(proof.Status),
	})
}
