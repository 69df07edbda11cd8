package entities

import "time"

// PaymentStatus is the payment lifecycle of a purchase
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusRefunding PaymentStatus = "refunding"
	PaymentStatusDisputed  PaymentStatus = "disputed"
)

// Purchase is an order for a quantity of cards in one round. The engine
// cares about it as the trigger for card generation and settlement;
// gateway-specific fields live outside this system.
type Purchase struct {
	ID               int64         `db:"id"`
	RoundID          int64         `db:"round_id"`
	Quantity         int           `db:"quantity"`
	TotalAmount      int64         `db:"total_amount"` // centavos
	PaymentStatus    PaymentStatus `db:"payment_status"`
	CustomerName     string        `db:"customer_name"`
	CustomerWhatsApp *string       `db:"customer_whatsapp"`
	ExpiresAt        *time.Time    `db:"expires_at"`
	PaidAt           *time.Time    `db:"paid_at"`
	SettledAt        *time.Time    `db:"settled_at"` // settlement idempotency marker
	RefundedAt       *time.Time    `db:"refunded_at"`
	CreatedAt        time.Time     `db:"created_at"`
}

// IsSettled returns true once settlement has been applied for this purchase
func (p *Purchase) IsSettled() bool {
	return p.SettledAt != nil
}
