package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `
INSERT INTO menu_items (name, description, price, image_url, is_available)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, description, price, image_url, is_available, created_at
`

type CreateMenuItemParams struct {
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    pgtype.Text
	IsAvailable bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.Name, arg.Description, arg.Price, arg.ImageUrl, arg.IsAvailable)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.IsAvailable, &m.CreatedAt)
	return m, err
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2, description = $3, price = $4, image_url = $5, is_available = $6
WHERE id = $1
RETURNING id, name, description, price, image_url, is_available, created_at
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    pgtype.Text
	IsAvailable bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem, arg.ID, arg.Name, arg.Description, arg.Price, arg.ImageUrl, arg.IsAvailable)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.IsAvailable, &m.CreatedAt)
	return m, err
}

const getMenuItem = `
SELECT id, name, description, price, image_url, is_available, created_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.IsAvailable, &m.CreatedAt)
	return m, err
}

const listMenuItems = `
SELECT id, name, description, price, image_url, is_available, created_at
FROM menu_items
ORDER BY created_at
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const listSpecials = `
SELECT s.id, s.day, m.id, m.name, m.description, m.price, m.image_url, m.is_available, m.created_at
FROM specials s
JOIN menu_items m ON m.id = s.item_id
ORDER BY s.day, m.name
`

type ListSpecialsRow struct {
	SpecialID uuid.UUID
	Day       string
	Item      MenuItem
}

func (q *Queries) ListSpecials(ctx context.Context) ([]ListSpecialsRow, error) {
	rows, err := q.db.Query(ctx, listSpecials)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var specials []ListSpecialsRow
	for rows.Next() {
		var r ListSpecialsRow
		m := &r.Item
		if err := rows.Scan(&r.SpecialID, &r.Day, &m.ID, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, err
		}
		specials = append(specials, r)
	}
	return specials, rows.Err()
}

const listUnscheduledMenuItems = `
SELECT id, name, description, price, image_url, is_available, created_at
FROM menu_items
WHERE is_available AND id NOT IN (SELECT item_id FROM specials)
ORDER BY name
`

// ListUnscheduledMenuItems returns available items that belong to no
// specials bucket; the menu shows these under the catch-all section.
func (q *Queries) ListUnscheduledMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listUnscheduledMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const createSpecial = `
INSERT INTO specials (item_id, day)
VALUES ($1, $2)
RETURNING id, item_id, day
`

type CreateSpecialParams struct {
	ItemID uuid.UUID
	Day    string
}

func (q *Queries) CreateSpecial(ctx context.Context, arg CreateSpecialParams) (Special, error) {
	row := q.db.QueryRow(ctx, createSpecial, arg.ItemID, arg.Day)
	var s Special
	err := row.Scan(&s.ID, &s.ItemID, &s.Day)
	return s, err
}

const deleteSpecial = `
DELETE FROM specials WHERE id = $1
`

func (q *Queries) DeleteSpecial(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteSpecial, id)
	return err
}
