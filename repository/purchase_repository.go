package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sortebem/domain/entities"
)

const purchaseColumns = `id, round_id, quantity, total_amount, payment_status,
	       customer_name, customer_whatsapp, expires_at, paid_at, settled_at,
	       refunded_at, created_at`

// PurchaseRepository implements purchase data access
type PurchaseRepository struct {
	q Queryable
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(q Queryable) *PurchaseRepository {
	return &PurchaseRepository{q: q}
}

func scanPurchase(row pgx.Row) (*entities.Purchase, error) {
	var purchase entities.Purchase
	err := row.Scan(
		&purchase.ID,
		&purchase.RoundID,
		&purchase.Quantity,
		&purchase.TotalAmount,
		&purchase.PaymentStatus,
		&purchase.CustomerName,
		&purchase.CustomerWhatsApp,
		&purchase.ExpiresAt,
		&purchase.PaidAt,
		&purchase.SettledAt,
		&purchase.RefundedAt,
		&purchase.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// Create inserts a purchase
func (r *PurchaseRepository) Create(ctx context.Context, purchase *entities.Purchase) error {
	query := `
		INSERT INTO purchases (round_id, quantity, total_amount, payment_status,
		                       customer_name, customer_whatsapp, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		purchase.RoundID,
		purchase.Quantity,
		purchase.TotalAmount,
		purchase.PaymentStatus,
		purchase.CustomerName,
		purchase.CustomerWhatsApp,
		purchase.ExpiresAt,
	).Scan(&purchase.ID, &purchase.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// GetByID retrieves a purchase by ID
func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*entities.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`

	purchase, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase by ID %d: %w", id, err)
	}
	return purchase, nil
}

// MarkPaid moves a pending purchase to paid
func (r *PurchaseRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	query := `
		UPDATE purchases
		SET payment_status = 'paid', paid_at = $2
		WHERE id = $1 AND payment_status = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, id, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark purchase %d paid: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkSettled stamps settled_at on a paid, unsettled purchase. The stamp is
// the settlement idempotency guard: of any number of concurrent settlement
// attempts exactly one sees true.
func (r *PurchaseRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time) (bool, error) {
	query := `
		UPDATE purchases
		SET settled_at = $2
		WHERE id = $1 AND payment_status = 'paid' AND settled_at IS NULL
	`

	tag, err := r.q.Exec(ctx, query, id, settledAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark purchase %d settled: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRefunded moves a paid purchase to refunded
func (r *PurchaseRepository) MarkRefunded(ctx context.Context, id int64, refundedAt time.Time) (bool, error) {
	query := `
		UPDATE purchases
		SET payment_status = 'refunded', refunded_at = $2
		WHERE id = $1 AND payment_status = 'paid'
	`

	tag, err := r.q.Exec(ctx, query, id, refundedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark purchase %d refunded: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetUnsettledPaid returns paid purchases not yet settled, oldest first
func (r *PurchaseRepository) GetUnsettledPaid(ctx context.Context, limit int) ([]*entities.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE payment_status = 'paid' AND settled_at IS NULL
		ORDER BY paid_at ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unsettled purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*entities.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}
	return purchases, nil
}

// RefundPaidByRound marks every paid purchase of a round refunded
func (r *PurchaseRepository) RefundPaidByRound(ctx context.Context, roundID int64, refundedAt time.Time) (int64, error) {
	query := `
		UPDATE purchases
		SET payment_status = 'refunded', refunded_at = $2
		WHERE round_id = $1 AND payment_status = 'paid'
	`

	tag, err := r.q.Exec(ctx, query, roundID, refundedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to refund purchases for round %d: %w", roundID, err)
	}
	return tag.RowsAffected(), nil
}

// ExpirePending marks pending purchases past their expiry as expired
func (r *PurchaseRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE purchases
		SET payment_status = 'expired'
		WHERE payment_status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1
	`

	tag, err := r.q.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending purchases: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteStale removes cancelled/expired purchases created before the cutoff
func (r *PurchaseRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM purchases
		WHERE payment_status IN ('cancelled', 'expired') AND created_at < $1
	`

	tag, err := r.q.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale purchases: %w", err)
	}
	return tag.RowsAffected(), nil
}
