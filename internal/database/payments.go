package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createPaymentProof = `
INSERT INTO payment_proofs (order_id, user_id, transaction_id, screenshot_url)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, user_id, transaction_id, screenshot_url, status, created_at
`

type CreatePaymentProofParams struct {
	OrderID       uuid.UUID
	UserID        uuid.UUID
	TransactionID string
	ScreenshotUrl string
}

func (q *Queries) CreatePaymentProof(ctx context.Context, arg CreatePaymentProofParams) (PaymentProof, error) {
	row := q.db.QueryRow(ctx, createPaymentProof, arg.OrderID, arg.UserID, arg.TransactionID, arg.ScreenshotUrl)
	var p PaymentProof
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.TransactionID, &p.ScreenshotUrl, &p.Status, &p.CreatedAt)
	return p, err
}

const getPaymentProofByOrder = `
SELECT id, order_id, user_id, transaction_id, screenshot_url, status, created_at
FROM payment_proofs
WHERE order_id = $1
`

func (q *Queries) GetPaymentProofByOrder(ctx context.Context, orderID uuid.UUID) (PaymentProof, error) {
	row := q.db.QueryRow(ctx, getPaymentProofByOrder, orderID)
	var p PaymentProof
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.TransactionID, &p.ScreenshotUrl, &p.Status, &p.CreatedAt)
	return p, err
}

const listPaymentProofs = `
SELECT p.id, p.order_id, p.user_id, p.transaction_id, p.screenshot_url, p.status, p.created_at,
       u.full_name, u.email
FROM payment_proofs p
JOIN users u ON u.id = p.user_id
WHERE $1::text IS NULL OR p.status = $1::text
ORDER BY p.created_at DESC
`

type ListPaymentProofsRow struct {
	Proof         PaymentProof
	CustomerName  string
	CustomerEmail string
}

func (q *Queries) ListPaymentProofs(ctx context.Context, status pgtype.Text) ([]ListPaymentProofsRow, error) {
	rows, err := q.db.Query(ctx, listPaymentProofs, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ListPaymentProofsRow
	for rows.Next() {
		var r ListPaymentProofsRow
		p := &r.Proof
		if err := rows.Scan(&p.ID, &p.OrderID, &p.UserID, &p.TransactionID, &p.ScreenshotUrl, &p.Status, &p.CreatedAt,
			&r.CustomerName, &r.CustomerEmail); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const updatePaymentProofStatus = `
UPDATE payment_proofs
SET status = $2
WHERE id = $1 AND status = 'Pending'
RETURNING id, order_id, user_id, transaction_id, screenshot_url, status, created_at
`

type UpdatePaymentProofStatusParams struct {
	ID     uuid.UUID
	Status ProofStatus
}

// UpdatePaymentProofStatus resolves a proof. Only Pending proofs can move;
// Approved and Rejected are terminal, enforced by the WHERE clause.
func (q *Queries) UpdatePaymentProofStatus(ctx context.Context, arg UpdatePaymentProofStatusParams) (PaymentProof, error) {
	row := q.db.QueryRow(ctx, updatePaymentProofStatus, arg.ID, arg.Status)
	var p PaymentProof
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.TransactionID, &p.ScreenshotUrl, &p.Status, &p.CreatedAt)
	return p, err
}
