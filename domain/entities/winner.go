package entities

import "time"

// WinnerStatus tracks prize claim state
type WinnerStatus string

const (
	WinnerStatusPending WinnerStatus = "pending"
	WinnerStatusClaimed WinnerStatus = "claimed"
)

// Winner records a card that completed a pattern. A round may hold several
// winner rows when ties are split.
type Winner struct {
	ID          int64        `db:"id"`
	RoundID     int64        `db:"round_id"`
	CardID      int64        `db:"card_id"`
	Pattern     string       `db:"pattern"`
	PrizeAmount int64        `db:"prize_amount"`
	Status      WinnerStatus `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
}
