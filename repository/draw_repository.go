package repository

import (
	"context"
	"fmt"

	"sortebem/domain/entities"
)

// DrawRepository implements per-draw record access
type DrawRepository struct {
	q Queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(q Queryable) *DrawRepository {
	return &DrawRepository{q: q}
}

// Create inserts one draw record. The unique constraints on (round_id,
// number) and (round_id, position) are the hard backstop against duplicate
// draws.
func (r *DrawRepository) Create(ctx context.Context, draw *entities.Draw) error {
	query := `
		INSERT INTO draws (round_id, number, position)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, draw.RoundID, draw.Number, draw.Position).
		Scan(&draw.ID, &draw.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create draw: %w", err)
	}
	return nil
}

// GetByRound returns a round's draws ordered by position
func (r *DrawRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.Draw, error) {
	query := `
		SELECT id, round_id, number, position, created_at
		FROM draws
		WHERE round_id = $1
		ORDER BY position ASC
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draws for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var draws []*entities.Draw
	for rows.Next() {
		var draw entities.Draw
		if err := rows.Scan(&draw.ID, &draw.RoundID, &draw.Number, &draw.Position, &draw.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, &draw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draws: %w", err)
	}
	return draws, nil
}

// CountByRound returns how many draws a round holds
func (r *DrawRepository) CountByRound(ctx context.Context, roundID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM draws WHERE round_id = $1`, roundID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count draws for round %d: %w", roundID, err)
	}
	return count, nil
}
