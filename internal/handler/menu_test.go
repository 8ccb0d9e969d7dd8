package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/handler"
	"github.com/tiffinly/api/internal/middleware"
)

// --- Mock MenuStore ---

type mockMenuStore struct {
	listSpecialsFn             func(ctx context.Context) ([]database.ListSpecialsRow, error)
	listUnscheduledMenuItemsFn func(ctx context.Context) ([]database.MenuItem, error)
	listMenuItemsFn            func(ctx context.Context) ([]database.MenuItem, error)
	getMenuItemFn              func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	createMenuItemFn           func(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	updateMenuItemFn           func(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	createSpecialFn            func(ctx context.Context, arg database.CreateSpecialParams) (database.Special, error)
	deleteSpecialFn            func(ctx context.Context, id uuid.UUID) error
}

func (m *mockMenuStore) ListSpecials(ctx context.Context) ([]database.ListSpecialsRow, error) {
	if m.listSpecialsFn != nil {
		return m.listSpecialsFn(ctx)
	}
	return nil, nil
}

func (m *mockMenuStore) ListUnscheduledMenuItems(ctx context.Context) ([]database.MenuItem, error) {
	if m.listUnscheduledMenuItemsFn != nil {
		return m.listUnscheduledMenuItemsFn(ctx)
	}
	return nil, nil
}

func (m *mockMenuStore) ListMenuItems(ctx context.Context) ([]database.MenuItem, error) {
	if m.listMenuItemsFn != nil {
		return m.listMenuItemsFn(ctx)
	}
	return nil, nil
}

func (m *mockMenuStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	if m.getMenuItemFn != nil {
		return m.getMenuItemFn(ctx, id)
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	if m.createMenuItemFn != nil {
		return m.createMenuItemFn(ctx, arg)
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	if m.updateMenuItemFn != nil {
		return m.updateMenuItemFn(ctx, arg)
	}
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockMenuStore) CreateSpecial(ctx context.Context, arg database.CreateSpecialParams) (database.Special, error) {
	if m.createSpecialFn != nil {
		return m.createSpecialFn(ctx, arg)
	}
	return database.Special{}, pgx.ErrNoRows
}

func (m *mockMenuStore) DeleteSpecial(ctx context.Context, id uuid.UUID) error {
	if m.deleteSpecialFn != nil {
		return m.deleteSpecialFn(ctx, id)
	}
	return nil
}

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.Authenticate(testJWTSecret))
		ar.Use(middleware.RequireRole("ADMIN"))
		h.RegisterAdminRoutes(ar)
	})
	return r
}

func testMenuItem(name, price string) database.MenuItem {
	return database.MenuItem{
		ID:          uuid.New(),
		Name:        name,
		Price:       testNumeric(price),
		IsAvailable: true,
	}
}

// --- Tests ---

func TestGetMenu_GroupsByDay(t *testing.T) {
	monday := testMenuItem("Monday Thali", "45.00")
	friday := testMenuItem("Friday Feast", "60.00")
	always := testMenuItem("Plain Rice", "10.00")

	store := &mockMenuStore{
		listSpecialsFn: func(ctx context.Context) ([]database.ListSpecialsRow, error) {
			// Returned out of calendar order on purpose.
			return []database.ListSpecialsRow{
				{SpecialID: uuid.New(), Day: "Friday", Item: friday},
				{SpecialID: uuid.New(), Day: "Monday", Item: monday},
			}, nil
		},
		listUnscheduledMenuItemsFn: func(ctx context.Context) ([]database.MenuItem, error) {
			return []database.MenuItem{always}, nil
		},
	}

	router := setupMenuRouter(store)
	rr := doRequest(t, router, "GET", "/menu", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	sections := resp["sections"].([]interface{})
	if len(sections) != 3 {
		t.Fatalf("sections: got %d, want 3", len(sections))
	}

	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.(map[string]interface{})["title"].(string)
	}
	// Weekday sections in calendar order, catch-all last.
	want := []string{"Monday", "Friday", "Available"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("section[%d] title: got %q, want %q", i, titles[i], want[i])
		}
	}

	first := sections[0].(map[string]interface{})["items"].([]interface{})[0].(map[string]interface{})
	if first["name"] != "Monday Thali" {
		t.Errorf("Monday item: got %v, want Monday Thali", first["name"])
	}
	if first["price"] != "45.00" {
		t.Errorf("Monday item price: got %v, want 45.00", first["price"])
	}
}

func TestGetMenu_EmptyCatalog(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doRequest(t, router, "GET", "/menu", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["sections"] != nil {
		sections := resp["sections"].([]interface{})
		if len(sections) != 0 {
			t.Errorf("sections: got %d, want 0", len(sections))
		}
	}
}

func TestCreateMenuItem_HappyPath(t *testing.T) {
	store := &mockMenuStore{
		createMenuItemFn: func(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
			if arg.Name != "Paneer Tikka" {
				t.Errorf("name: got %q, want Paneer Tikka", arg.Name)
			}
			return database.MenuItem{
				ID:          uuid.New(),
				Name:        arg.Name,
				Description: arg.Description,
				Price:       arg.Price,
				IsAvailable: arg.IsAvailable,
			}, nil
		},
	}

	router := setupMenuRouter(store)
	rr := doAuthRequest(t, router, "POST", "/admin/menu/items", map[string]interface{}{
		"name":        "Paneer Tikka",
		"description": "Char-grilled",
		"price":       "55.00",
	}, adminClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["price"] != "55.00" {
		t.Errorf("price: got %v, want 55.00", resp["price"])
	}
	if resp["is_available"] != true {
		t.Error("new items should default to available")
	}
}

func TestCreateMenuItem_InvalidPrice(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doAuthRequest(t, router, "POST", "/admin/menu/items", map[string]interface{}{
		"name":  "Paneer Tikka",
		"price": "-5.00",
	}, adminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateMenuItem_ForbiddenForCustomer(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doAuthRequest(t, router, "POST", "/admin/menu/items", map[string]interface{}{
		"name":  "Paneer Tikka",
		"price": "55.00",
	}, customerClaims())

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestCreateSpecial_InvalidDay(t *testing.T) {
	store := &mockMenuStore{
		getMenuItemFn: func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
			return testMenuItem("Monday Thali", "45.00"), nil
		},
	}

	router := setupMenuRouter(store)
	rr := doAuthRequest(t, router, "POST", "/admin/menu/specials", map[string]string{
		"item_id": uuid.New().String(),
		"day":     "Funday",
	}, adminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateSpecial_UnknownItem(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})
	rr := doAuthRequest(t, router, "POST", "/admin/menu/specials", map[string]string{
		"item_id": uuid.New().String(),
		"day":     "Monday",
	}, adminClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteSpecial_HappyPath(t *testing.T) {
	deleted := false
	store := &mockMenuStore{
		deleteSpecialFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}

	router := setupMenuRouter(store)
	rr := doAuthRequest(t, router, "DELETE", "/admin/menu/specials/"+uuid.New().String(), nil, adminClaims())

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if !deleted {
		t.Error("expected DeleteSpecial to be called")
	}
}
