package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tiffinly/api/internal/database"
)

// Errors returned by the checkout service.
var (
	ErrBlankAddress = errors.New("delivery address is required")
	ErrEmptyCart    = errors.New("cart is empty")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to place an order from a cart.
// Satisfied by *database.Queries (and its WithTx variant).
type CheckoutStore interface {
	ListCartLines(ctx context.Context, userID uuid.UUID) ([]database.CartLine, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CheckoutRequest is the validated input for placing an order.
type CheckoutRequest struct {
	UserID  uuid.UUID
	Address string
}

// CheckoutResult is the created order with its item snapshots.
type CheckoutResult struct {
	Order database.Order
	Items []database.OrderItem
}

// CheckoutService turns a user's cart into an order.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore}
}

// Checkout reads the cart, totals it at current catalog prices, inserts the
// order and per-line snapshots, and clears the cart. All of it runs in one
// transaction: if anything fails the cart is left untouched.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, ErrBlankAddress
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	lines, err := store.ListCartLines(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// total = sum(unit price * quantity) over the cart at this instant.
	// The per-line snapshots below freeze those same prices so later
	// catalog edits never change what the customer owes.
	total := decimal.Zero
	for _, line := range lines {
		unitPrice := numericToDecimal(line.Price)
		total = total.Add(unitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:      req.UserID,
		Address:     strings.TrimSpace(req.Address),
		TotalAmount: decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, line := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:      order.ID,
			ItemID:       line.ItemID,
			NameSnapshot: line.Name,
			Quantity:     line.Quantity,
			Price:        line.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := store.ClearCart(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{
		Order: order,
		Items: items,
	}, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
