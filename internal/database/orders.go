package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, address, total_amount, payment_method, status, rejection_reason, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Address, &o.TotalAmount, &o.PaymentMethod, &o.Status, &o.RejectionReason, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const createOrder = `
INSERT INTO orders (user_id, address, total_amount)
VALUES ($1, $2, $3)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID      uuid.UUID
	Address     string
	TotalAmount pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder, arg.UserID, arg.Address, arg.TotalAmount))
}

const createOrderItem = `
INSERT INTO order_items (order_id, item_id, name_snapshot, quantity, price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, item_id, name_snapshot, quantity, price, created_at
`

type CreateOrderItemParams struct {
	OrderID      uuid.UUID
	ItemID       uuid.UUID
	NameSnapshot string
	Quantity     int32
	Price        pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.ItemID, arg.NameSnapshot, arg.Quantity, arg.Price)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ItemID, &i.NameSnapshot, &i.Quantity, &i.Price, &i.CreatedAt)
	return i, err
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND user_id = $2
`

type GetOrderForUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetOrderForUser(ctx context.Context, arg GetOrderForUserParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUser, arg.ID, arg.UserID))
}

const listOrdersByUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, item_id, name_snapshot, quantity, price, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ItemID, &i.NameSnapshot, &i.Quantity, &i.Price, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrders = `
SELECT o.id, o.user_id, o.address, o.total_amount, o.payment_method, o.status,
       o.rejection_reason, o.created_at, o.updated_at,
       u.full_name, u.email, p.transaction_id
FROM orders o
JOIN users u ON u.id = o.user_id
LEFT JOIN payment_proofs p ON p.order_id = o.id
WHERE $1::text IS NULL OR o.status = $1::text
ORDER BY o.created_at DESC
`

type ListOrdersRow struct {
	Order         Order
	CustomerName  string
	CustomerEmail string
	TransactionID pgtype.Text
}

// ListOrders is the admin view: each order joined to its customer and, when
// present, the manual payment proof's transaction reference.
func (q *Queries) ListOrders(ctx context.Context, status pgtype.Text) ([]ListOrdersRow, error) {
	rows, err := q.db.Query(ctx, listOrders, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ListOrdersRow
	for rows.Next() {
		var r ListOrdersRow
		o := &r.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Address, &o.TotalAmount, &o.PaymentMethod, &o.Status,
			&o.RejectionReason, &o.CreatedAt, &o.UpdatedAt,
			&r.CustomerName, &r.CustomerEmail, &r.TransactionID); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, rejection_reason = $3, updated_at = now()
WHERE id = $1 AND status = $4
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID              uuid.UUID
	Status          OrderStatus
	RejectionReason pgtype.Text
	PrevStatus      OrderStatus
}

// UpdateOrderStatus advances the order state machine. The WHERE clause
// matches the expected prior status so a concurrent transition, or one
// attempted from a terminal state, updates zero rows (pgx.ErrNoRows).
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.RejectionReason, arg.PrevStatus))
}

const setOrderPayment = `
UPDATE orders
SET payment_method = $2, total_amount = $3, updated_at = now()
WHERE id = $1 AND user_id = $4 AND status = 'pending' AND payment_method IS NULL
RETURNING ` + orderColumns

type SetOrderPaymentParams struct {
	ID            uuid.UUID
	PaymentMethod PaymentMethod
	TotalAmount   pgtype.Numeric
	UserID        uuid.UUID
}

// SetOrderPayment records the chosen method and the fee-adjusted amount.
// Guarded so a method can be confirmed exactly once, and only while the
// order is still pending.
func (q *Queries) SetOrderPayment(ctx context.Context, arg SetOrderPaymentParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderPayment, arg.ID, arg.PaymentMethod, arg.TotalAmount, arg.UserID))
}
