package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusRejected  = "rejected"
	OrderStatusCompleted = "completed"
)

const (
	ProofStatusPending  = "Pending"
	ProofStatusApproved = "Approved"
	ProofStatusRejected = "Rejected"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleCustomer = "CUSTOMER"
	UserRoleAdmin    = "ADMIN"
)

// ── Payment methods (CHECK constrained in DB) ──

const (
	PaymentMethodCashOnDelivery = "CASH_ON_DELIVERY"
	PaymentMethodOnlineGateway  = "ONLINE_GATEWAY"
	PaymentMethodDirectTransfer = "DIRECT_TRANSFER"
)

// ── Specials schedule (CHECK constrained in DB) ──

var Days = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// IsValidDay reports whether s is a weekday name accepted by the specials table.
func IsValidDay(s string) bool {
	for _, d := range Days {
		if d == s {
			return true
		}
	}
	return false
}
