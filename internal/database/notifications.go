package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createNotification = `
INSERT INTO notifications (user_id, order_id, message)
VALUES ($1, $2, $3)
RETURNING id, user_id, order_id, message, read, created_at
`

type CreateNotificationParams struct {
	UserID  uuid.UUID
	OrderID pgtype.UUID
	Message string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification, arg.UserID, arg.OrderID, arg.Message)
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.Read, &n.CreatedAt)
	return n, err
}

const listNotificationsByUser = `
SELECT id, user_id, order_id, message, read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 50
`

func (q *Queries) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotificationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

const markNotificationRead = `
UPDATE notifications
SET read = true
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, order_id, message, read, created_at
`

type MarkNotificationReadParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (Notification, error) {
	row := q.db.QueryRow(ctx, markNotificationRead, arg.ID, arg.UserID)
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Message, &n.Read, &n.CreatedAt)
	return n, err
}
