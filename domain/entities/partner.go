package entities

import "time"

// Establishment is a point-of-sale partner linked to rounds. CommissionRate
// is a percentage of the round's commission pool, not of the sale total.
type Establishment struct {
	ID             int64     `db:"id"`
	Code           string    `db:"code"`
	Name           string    `db:"name"`
	ManagerID      *int64    `db:"manager_id"`
	CommissionRate float64   `db:"commission_rate"` // percent of commission pool
	Balance        int64     `db:"balance"`         // centavos
	CreatedAt      time.Time `db:"created_at"`
}

// Manager oversees establishments and earns a share of the commission pool
type Manager struct {
	ID             int64     `db:"id"`
	Code           string    `db:"code"`
	Name           string    `db:"name"`
	CommissionRate float64   `db:"commission_rate"` // percent of commission pool
	Balance        int64     `db:"balance"`         // centavos
	CreatedAt      time.Time `db:"created_at"`
}

// Charity receives the charity share of each settled purchase
type Charity struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	TotalReceived int64     `db:"total_received"` // centavos
	CreatedAt     time.Time `db:"created_at"`
}
