package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const upsertCartItem = `
INSERT INTO cart_items (user_id, item_id, quantity)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, item_id)
DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = now()
RETURNING user_id, item_id, quantity, created_at, updated_at
`

type UpsertCartItemParams struct {
	UserID uuid.UUID
	ItemID uuid.UUID
}

// UpsertCartItem adds one unit of the item to the user's cart, bumping the
// quantity when a line already exists. Never produces a duplicate line.
func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, upsertCartItem, arg.UserID, arg.ItemID)
	var c CartItem
	err := row.Scan(&c.UserID, &c.ItemID, &c.Quantity, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const setCartItemQuantity = `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE user_id = $1 AND item_id = $2
RETURNING user_id, item_id, quantity, created_at, updated_at
`

type SetCartItemQuantityParams struct {
	UserID   uuid.UUID
	ItemID   uuid.UUID
	Quantity int32
}

func (q *Queries) SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, setCartItemQuantity, arg.UserID, arg.ItemID, arg.Quantity)
	var c CartItem
	err := row.Scan(&c.UserID, &c.ItemID, &c.Quantity, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE user_id = $1 AND item_id = $2
`

type DeleteCartItemParams struct {
	UserID uuid.UUID
	ItemID uuid.UUID
}

// DeleteCartItem removes a line if present; deleting an absent line is not
// an error.
func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error {
	_, err := q.db.Exec(ctx, deleteCartItem, arg.UserID, arg.ItemID)
	return err
}

const clearCart = `
DELETE FROM cart_items
WHERE user_id = $1
`

func (q *Queries) ClearCart(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearCart, userID)
	return err
}

const listCartLines = `
SELECT c.item_id, m.name, m.price, m.image_url, c.quantity
FROM cart_items c
JOIN menu_items m ON m.id = c.item_id
WHERE c.user_id = $1
ORDER BY c.created_at
`

type CartLine struct {
	ItemID   uuid.UUID
	Name     string
	Price    pgtype.Numeric
	ImageUrl pgtype.Text
	Quantity int32
}

// ListCartLines joins cart rows to the live catalog so each line carries
// the item's current unit price.
func (q *Queries) ListCartLines(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, listCartLines, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ItemID, &l.Name, &l.Price, &l.ImageUrl, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
