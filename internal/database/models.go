package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserRole string

const (
	UserRoleCUSTOMER UserRole = "CUSTOMER"
	UserRoleADMIN    UserRole = "ADMIN"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCompleted OrderStatus = "completed"
)

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodOnlineGateway  PaymentMethod = "ONLINE_GATEWAY"
	PaymentMethodDirectTransfer PaymentMethod = "DIRECT_TRANSFER"
)

type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "Pending"
	ProofStatusApproved ProofStatus = "Approved"
	ProofStatusRejected ProofStatus = "Rejected"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         UserRole
	CreatedAt    time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    pgtype.Text
	IsAvailable bool
	CreatedAt   time.Time
}

type Special struct {
	ID     uuid.UUID
	ItemID uuid.UUID
	Day    string
}

type CartItem struct {
	UserID    uuid.UUID
	ItemID    uuid.UUID
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Address         string
	TotalAmount     pgtype.Numeric
	PaymentMethod   pgtype.Text
	Status          OrderStatus
	RejectionReason pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ItemID       uuid.UUID
	NameSnapshot string
	Quantity     int32
	Price        pgtype.Numeric
	CreatedAt    time.Time
}

type PaymentProof struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	UserID        uuid.UUID
	TransactionID string
	ScreenshotUrl string
	Status        ProofStatus
	CreatedAt     time.Time
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	OrderID   pgtype.UUID
	Message   string
	Read      bool
	CreatedAt time.Time
}
