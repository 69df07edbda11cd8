package entities

import "time"

// RoundType distinguishes the two round cadences
type RoundType string

const (
	RoundTypeRegular RoundType = "regular"
	RoundTypeSpecial RoundType = "special"
)

// RoundStatus is the lifecycle state of a round
type RoundStatus string

const (
	RoundStatusScheduled RoundStatus = "scheduled"
	RoundStatusSelling   RoundStatus = "selling"
	RoundStatusDrawing   RoundStatus = "drawing"
	RoundStatusFinished  RoundStatus = "finished"
	RoundStatusCancelled RoundStatus = "cancelled"
)

// TotalDrawableNumbers is the size of the number space drawn from in a round
const TotalDrawableNumbers = 75

// Round represents one timed instance of the game with its own draw
// sequence and economics. Monetary amounts are integer centavos.
type Round struct {
	ID               int64       `db:"id"`
	Number           int64       `db:"number"` // monotonic, gapless sequence
	Type             RoundType   `db:"type"`
	Status           RoundStatus `db:"status"`
	IsSelling        bool        `db:"is_selling"` // sale window flag, independent of Status
	CardPrice        int64       `db:"card_price"`
	MaxCards         int         `db:"max_cards"`
	CardsSold        int         `db:"cards_sold"`
	TotalSales       int64       `db:"total_sales"`
	PrizePool        int64       `db:"prize_pool"`
	CharityAmount    int64       `db:"charity_amount"`
	PlatformAmount   int64       `db:"platform_amount"`
	CommissionAmount int64       `db:"commission_amount"`
	DrawnNumbers     []int32     `db:"drawn_numbers"` // append-only, max 75, no duplicates
	EstablishmentID  *int64      `db:"establishment_id"`
	ManagerID        *int64      `db:"manager_id"`
	CharityID        *int64      `db:"charity_id"`
	StartsAt         time.Time   `db:"starts_at"`
	SellingEndsAt    time.Time   `db:"selling_ends_at"`
	EndsAt           time.Time   `db:"ends_at"`
	DrawingStartedAt *time.Time  `db:"drawing_started_at"`
	FinishedAt       *time.Time  `db:"finished_at"`
	CreatedAt        time.Time   `db:"created_at"`
}

// IsTerminal returns true once the round can accept no further transitions
func (r *Round) IsTerminal() bool {
	return r.Status == RoundStatusFinished || r.Status == RoundStatusCancelled
}

// AcceptsPurchases returns true while new purchases may be taken
func (r *Round) AcceptsPurchases(now time.Time) bool {
	return r.Status == RoundStatusSelling && r.IsSelling && now.Before(r.SellingEndsAt)
}

// DrawnCount returns how many numbers have been drawn so far
func (r *Round) DrawnCount() int {
	return len(r.DrawnNumbers)
}

// AllNumbersDrawn returns true when the full number space is exhausted
func (r *Round) AllNumbersDrawn() bool {
	return len(r.DrawnNumbers) >= TotalDrawableNumbers
}

// HasDrawn reports whether a number is already in the round's drawn sequence
func (r *Round) HasDrawn(number int32) bool {
	for _, n := range r.DrawnNumbers {
		if n == number {
			return true
		}
	}
	return false
}

// NextDrawPosition is the 1-based position the next draw will occupy
func (r *Round) NextDrawPosition() int {
	return len(r.DrawnNumbers) + 1
}
