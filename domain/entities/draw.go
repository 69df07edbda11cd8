package entities

import "time"

// Draw is one number revealed during a round's drawing phase. Position is
// the 1-based sequential index of the draw within its round.
type Draw struct {
	ID        int64     `db:"id"`
	RoundID   int64     `db:"round_id"`
	Number    int32     `db:"number"` // 1-75
	Position  int       `db:"position"`
	CreatedAt time.Time `db:"created_at"`
}
