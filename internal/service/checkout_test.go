package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tiffinly/api/internal/database"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
	rolledBack  bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return m.rollbackErr
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockCheckoutStore implements CheckoutStore with configurable behavior.
type mockCheckoutStore struct {
	listCartLinesFn   func(ctx context.Context, userID uuid.UUID) ([]database.CartLine, error)
	createOrderFn     func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	clearCartFn       func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockCheckoutStore) ListCartLines(ctx context.Context, userID uuid.UUID) ([]database.CartLine, error) {
	return m.listCartLinesFn(ctx, userID)
}
func (m *mockCheckoutStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockCheckoutStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockCheckoutStore) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.clearCartFn(ctx, userID)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// newTestService creates a CheckoutService with mocked dependencies.
// store is the mock CheckoutStore that will be returned by the factory.
func newTestService(store *mockCheckoutStore) (*CheckoutService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	return NewCheckoutService(pool, newStore), tx
}

// defaultStore returns a mockCheckoutStore with sensible defaults: a cart of
// two lines totaling 130.00. Individual tests override what they care about.
func defaultStore(userID uuid.UUID) *mockCheckoutStore {
	itemA := uuid.New()
	itemB := uuid.New()
	return &mockCheckoutStore{
		listCartLinesFn: func(ctx context.Context, uid uuid.UUID) ([]database.CartLine, error) {
			if uid != userID {
				return nil, nil
			}
			return []database.CartLine{
				{ItemID: itemA, Name: "Chicken Biryani", Price: makeNumeric("50.00"), Quantity: 2},
				{ItemID: itemB, Name: "Mango Lassi", Price: makeNumeric("30.00"), Quantity: 1},
			}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:          uuid.New(),
				UserID:      arg.UserID,
				Address:     arg.Address,
				TotalAmount: arg.TotalAmount,
				Status:      database.OrderStatusPending,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:           uuid.New(),
				OrderID:      arg.OrderID,
				ItemID:       arg.ItemID,
				NameSnapshot: arg.NameSnapshot,
				Quantity:     arg.Quantity,
				Price:        arg.Price,
			}, nil
		},
		clearCartFn: func(ctx context.Context, uid uuid.UUID) error {
			return nil
		},
	}
}

// =====================
// Validation tests
// =====================

func TestCheckout_BlankAddress(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)
	svc, _ := newTestService(store)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "   ",
	})
	if !errors.Is(err, ErrBlankAddress) {
		t.Fatalf("expected ErrBlankAddress, got: %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)
	store.listCartLinesFn = func(ctx context.Context, uid uuid.UUID) ([]database.CartLine, error) {
		return nil, nil
	}
	svc, tx := newTestService(store)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got: %v", err)
	}
	if tx.committed {
		t.Error("transaction should not commit for an empty cart")
	}
}

// =====================
// Total calculation tests
// =====================

func TestCheckout_TotalsCart(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)

	var capturedOrder database.CreateOrderParams
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		capturedOrder = arg
		return database.Order{
			ID: uuid.New(), UserID: arg.UserID, Address: arg.Address,
			TotalAmount: arg.TotalAmount, Status: database.OrderStatusPending,
		}, nil
	}

	svc, tx := newTestService(store)
	result, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// total = (50.00 * 2) + (30.00 * 1) = 130.00
	if !numericEquals(capturedOrder.TotalAmount, "130.00") {
		t.Errorf("order total: got %v, want 130.00", numericToDecimal(capturedOrder.TotalAmount))
	}
	if capturedOrder.Address != "12 Hill Road" {
		t.Errorf("order address: got %q, want %q", capturedOrder.Address, "12 Hill Road")
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(result.Items))
	}
	if !tx.committed {
		t.Error("transaction should commit on success")
	}
}

func TestCheckout_SnapshotsNameAndPrice(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)

	var capturedItems []database.CreateOrderItemParams
	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		capturedItems = append(capturedItems, arg)
		return database.OrderItem{
			ID: uuid.New(), OrderID: arg.OrderID, ItemID: arg.ItemID,
			NameSnapshot: arg.NameSnapshot, Quantity: arg.Quantity, Price: arg.Price,
		}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(capturedItems) != 2 {
		t.Fatalf("expected 2 item inserts, got %d", len(capturedItems))
	}
	if capturedItems[0].NameSnapshot != "Chicken Biryani" {
		t.Errorf("name snapshot: got %q, want %q", capturedItems[0].NameSnapshot, "Chicken Biryani")
	}
	if !numericEquals(capturedItems[0].Price, "50.00") {
		t.Errorf("price snapshot: got %v, want 50.00", numericToDecimal(capturedItems[0].Price))
	}
	if capturedItems[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", capturedItems[0].Quantity)
	}
	if !numericEquals(capturedItems[1].Price, "30.00") {
		t.Errorf("price snapshot: got %v, want 30.00", numericToDecimal(capturedItems[1].Price))
	}
}

func TestCheckout_ClearsCartInSameTransaction(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)

	cleared := false
	store.clearCartFn = func(ctx context.Context, uid uuid.UUID) error {
		if uid != userID {
			t.Errorf("cleared cart for wrong user: %v", uid)
		}
		cleared = true
		return nil
	}

	svc, tx := newTestService(store)
	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cleared {
		t.Error("cart should be cleared on successful checkout")
	}
	if !tx.committed {
		t.Error("transaction should commit")
	}
}

// =====================
// Failure atomicity tests
// =====================

func TestCheckout_ItemInsertFailureRollsBack(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)

	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		return database.OrderItem{}, errors.New("insert failed")
	}
	store.clearCartFn = func(ctx context.Context, uid uuid.UUID) error {
		t.Error("cart should not be cleared when an item insert fails")
		return nil
	}

	svc, tx := newTestService(store)
	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if tx.committed {
		t.Error("transaction should not commit on item insert failure")
	}
	if !tx.rolledBack {
		t.Error("transaction should roll back on item insert failure")
	}
}

func TestCheckout_CommitFailureReturnsError(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)
	svc, tx := newTestService(store)
	tx.commitErr = errors.New("commit failed")

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if err == nil {
		t.Fatal("expected error when commit fails, got nil")
	}
}

func TestCheckout_BeginFailureReturnsError(t *testing.T) {
	userID := uuid.New()
	store := defaultStore(userID)
	pool := &mockTxBeginner{err: errors.New("pool exhausted")}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	svc := NewCheckoutService(pool, newStore)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  userID,
		Address: "12 Hill Road",
	})
	if err == nil {
		t.Fatal("expected error when Begin fails, got nil")
	}
}
