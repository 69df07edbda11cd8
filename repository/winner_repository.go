package repository

import (
	"context"
	"fmt"

	"sortebem/domain/entities"
)

// WinnerRepository implements winner record access
type WinnerRepository struct {
	q Queryable
}

// NewWinnerRepository creates a new winner repository
func NewWinnerRepository(q Queryable) *WinnerRepository {
	return &WinnerRepository{q: q}
}

// Create inserts a winner record
func (r *WinnerRepository) Create(ctx context.Context, winner *entities.Winner) error {
	query := `
		INSERT INTO winners (round_id, card_id, pattern, prize_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		winner.RoundID,
		winner.CardID,
		winner.Pattern,
		winner.PrizeAmount,
		winner.Status,
	).Scan(&winner.ID, &winner.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create winner: %w", err)
	}
	return nil
}

// GetByRound returns a round's winners in creation order
func (r *WinnerRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.Winner, error) {
	query := `
		SELECT id, round_id, card_id, pattern, prize_amount, status, created_at
		FROM winners
		WHERE round_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var winners []*entities.Winner
	for rows.Next() {
		var winner entities.Winner
		if err := rows.Scan(&winner.ID, &winner.RoundID, &winner.CardID,
			&winner.Pattern, &winner.PrizeAmount, &winner.Status, &winner.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, &winner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winners: %w", err)
	}
	return winners, nil
}

// ExistsForRound reports whether the round already has a winner
func (r *WinnerRepository) ExistsForRound(ctx context.Context, roundID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM winners WHERE round_id = $1)`, roundID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check winner for round %d: %w", roundID, err)
	}
	return exists, nil
}
