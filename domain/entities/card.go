package entities

import "time"

// CardStatus tracks whether a card has been sold
type CardStatus string

const (
	CardStatusAvailable CardStatus = "available"
	CardStatusSold      CardStatus = "sold"
)

// FreeCellIndex is the always-marked center position. Pattern positions
// index the stored 24-number sequence directly; position 12 is never
// compared against a stored number, it is simply treated as marked.
const FreeCellIndex = 12

// CardGridSize is the number of stored numbers on a card (5x5 minus the free cell)
const CardGridSize = 24

// Card is a purchased combinatorial grid of numbers checked against draws.
// Numbers holds 24 values in fixed column-then-row order with the center
// cell omitted.
type Card struct {
	ID         int64      `db:"id"`
	Code       string     `db:"code"`
	RoundID    int64      `db:"round_id"`
	PurchaseID *int64     `db:"purchase_id"`
	Numbers    []int32    `db:"numbers"`
	Status     CardStatus `db:"status"`
	IsWinner   bool       `db:"is_winner"` // set at most once, never unset
	CreatedAt  time.Time  `db:"created_at"`
}

// CardGrid is the 5x5 column view of a card. The R column's center entry is
// zero, standing in for the free cell.
type CardGrid struct {
	S [5]int32 `json:"S"`
	O [5]int32 `json:"O"`
	R [5]int32 `json:"R"` // R[2] == 0: free cell
	T [5]int32 `json:"T"`
	E [5]int32 `json:"E"`
}

// Grid maps the flat 24-number sequence into the 5x5 column layout
func (c *Card) Grid() CardGrid {
	n := c.Numbers
	return CardGrid{
		S: [5]int32{n[0], n[5], n[10], n[14], n[19]},
		O: [5]int32{n[1], n[6], n[11], n[15], n[20]},
		R: [5]int32{n[2], n[7], 0, n[16], n[21]},
		T: [5]int32{n[3], n[8], n[12], n[17], n[22]},
		E: [5]int32{n[4], n[9], n[13], n[18], n[23]},
	}
}
