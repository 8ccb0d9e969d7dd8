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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/enum"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListSpecials(ctx context.Context) ([]database.ListSpecialsRow, error)
	ListUnscheduledMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	CreateSpecial(ctx context.Context, arg database.CreateSpecialParams) (database.Special, error)
	DeleteSpecial(ctx context.Context, id uuid.UUID) error
}

// MenuHandler handles menu browsing and catalog management endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers the public menu endpoint.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.GetMenu)
}

// RegisterAdminRoutes registers catalog management endpoints. Expected to be
// mounted inside an admin-only subrouter.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/menu/items", h.ListItems)
	r.Post("/menu/items", h.CreateItem)
	r.Put("/menu/items/{id}", h.UpdateItem)
	r.Post("/menu/specials", h.CreateSpecial)
	r.Delete("/menu/specials/{id}", h.DeleteSpecial)
}

// --- Request / Response types ---

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

type menuSectionResponse struct {
	Title string             `json:"title"`
	Items []menuItemResponse `json:"items"`
}

type menuResponse struct {
	Sections []menuSectionResponse `json:"sections"`
}

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	IsAvailable *bool  `json:"is_available"`
}

type createSpecialRequest struct {
	ItemID string `json:"item_id"`
	Day    string `json:"day"`
}

type specialResponse struct {
	ID     uuid.UUID `json:"id"`
	ItemID uuid.UUID `json:"item_id"`
	Day    string    `json:"day"`
}

// --- Handlers ---

// GetMenu handles GET /menu. The menu is one section per weekday that has
// specials, in calendar order, followed by an "Available" section with every
// available item not assigned to a day.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	specials, err := h.store.ListSpecials(r.Context())
	if err != nil {
		log.Printf("ERROR: list specials: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byDay := make(map[string][]menuItemResponse)
	for _, s := range specials {
		byDay[s.Day] = append(byDay[s.Day], dbMenuItemToResponse(s.Item))
	}

	var sections []menuSectionResponse
	for _, day := range enum.Days {
		if items, ok := byDay[day]; ok {
			sections = append(sections, menuSectionResponse{Title: day, Items: items})
		}
	}

	unscheduled, err := h.store.ListUnscheduledMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list unscheduled menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(unscheduled) > 0 {
		items := make([]menuItemResponse, len(unscheduled))
		for i, m := range unscheduled {
			items[i] = dbMenuItemToResponse(m)
		}
		sections = append(sections, menuSectionResponse{Title: "Available", Items: items})
	}

	writeJSON(w, http.StatusOK, menuResponse{Sections: sections})
}

// ListItems handles GET /admin/menu/items, the full unfiltered catalog.
func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = dbMenuItemToResponse(m)
	}
	writeJSON(w, http.StatusOK, map[string][]menuItemResponse{"items": resp})
}

// CreateItem handles POST /admin/menu/items.
func (h *MenuHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	params, ok := parseMenuItemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbMenuItemToResponse(item))
}

// UpdateItem handles PUT /admin/menu/items/{id}.
func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	params, ok := parseMenuItemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		ImageUrl:    params.ImageUrl,
		IsAvailable: params.IsAvailable,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbMenuItemToResponse(item))
}

// CreateSpecial handles POST /admin/menu/specials.
func (h *MenuHandler) CreateSpecial(w http.ResponseWriter, r *http.Request) {
	var req createSpecialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}
	if !enum.IsValidDay(req.Day) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day"})
		return
	}

	if _, err := h.store.GetMenuItem(r.Context(), itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item for special: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	special, err := h.store.CreateSpecial(r.Context(), database.CreateSpecialParams{
		ItemID: itemID,
		Day:    req.Day,
	})
	if err != nil {
		log.Printf("ERROR: create special: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, specialResponse{
		ID:     special.ID,
		ItemID: special.ItemID,
		Day:    special.Day,
	})
}

// DeleteSpecial handles DELETE /admin/menu/specials/{id}.
func (h *MenuHandler) DeleteSpecial(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid special ID"})
		return
	}

	if err := h.store.DeleteSpecial(r.Context(), id); err != nil {
		log.Printf("ERROR: delete special: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// parseMenuItemRequest decodes and validates the shared create/update body.
// Writes the error response itself and returns ok=false on failure.
func parseMenuItemRequest(w http.ResponseWriter, r *http.Request) (database.CreateMenuItemParams, bool) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return database.CreateMenuItemParams{}, false
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return database.CreateMenuItemParams{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return database.CreateMenuItemParams{}, false
	}

	params := database.CreateMenuItemParams{
		Name:        req.Name,
		Price:       decimalToNumeric(price),
		IsAvailable: true,
	}
	if req.Description != "" {
		params.Description = pgtype.Text{String: req.Description, Valid: true}
	}
	if req.ImageURL != "" {
		params.ImageUrl = pgtype.Text{String: req.ImageURL, Valid: true}
	}
	if req.IsAvailable != nil {
		params.IsAvailable = *req.IsAvailable
	}
	return params, true
}

func dbMenuItemToResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Price:       numericToString(m.Price),
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt,
	}
	if m.Description.Valid {
		resp.Description = &m.Description.String
	}
	if m.ImageUrl.Valid {
		resp.ImageURL = &m.ImageUrl.String
	}
	return resp
}
