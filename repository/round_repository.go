package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sortebem/domain/entities"
)

const roundColumns = `id, number, type, status, is_selling, card_price, max_cards,
	       cards_sold, total_sales, prize_pool, charity_amount, platform_amount,
	       commission_amount, drawn_numbers, establishment_id, manager_id, charity_id,
	       starts_at, selling_ends_at, ends_at, drawing_started_at, finished_at, created_at`

// RoundRepository implements round data access
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(q Queryable) *RoundRepository {
	return &RoundRepository{q: q}
}

func scanRound(row pgx.Row) (*entities.Round, error) {
	var round entities.Round
	err := row.Scan(
		&round.ID,
		&round.Number,
		&round.Type,
		&round.Status,
		&round.IsSelling,
		&round.CardPrice,
		&round.MaxCards,
		&round.CardsSold,
		&round.TotalSales,
		&round.PrizePool,
		&round.CharityAmount,
		&round.PlatformAmount,
		&round.CommissionAmount,
		&round.DrawnNumbers,
		&round.EstablishmentID,
		&round.ManagerID,
		&round.CharityID,
		&round.StartsAt,
		&round.SellingEndsAt,
		&round.EndsAt,
		&round.DrawingStartedAt,
		&round.FinishedAt,
		&round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func collectRounds(rows pgx.Rows) ([]*entities.Round, error) {
	defer rows.Close()

	var rounds []*entities.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	return rounds, nil
}

// Create inserts a round. The round number is assigned inside the statement
// from the current maximum, keeping the sequence gapless.
func (r *RoundRepository) Create(ctx context.Context, round *entities.Round) error {
	query := `
		INSERT INTO rounds (number, type, status, is_selling, card_price, max_cards,
		                    establishment_id, manager_id, charity_id,
		                    starts_at, selling_ends_at, ends_at)
		VALUES ((SELECT COALESCE(MAX(number), 0) + 1 FROM rounds),
		        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, number, created_at
	`

	err := r.q.QueryRow(ctx, query,
		round.Type,
		round.Status,
		round.IsSelling,
		round.CardPrice,
		round.MaxCards,
		round.EstablishmentID,
		round.ManagerID,
		round.CharityID,
		round.StartsAt,
		round.SellingEndsAt,
		round.EndsAt,
	).Scan(&round.ID, &round.Number, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID retrieves a round by its ID
func (r *RoundRepository) GetByID(ctx context.Context, id int64) (*entities.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round by ID %d: %w", id, err)
	}
	return round, nil
}

// GetByIDForUpdate retrieves a round by ID with a row lock
func (r *RoundRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1 FOR UPDATE`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d for update: %w", id, err)
	}
	return round, nil
}

// GetNextOpen returns the earliest scheduled or selling round of a type
func (r *RoundRepository) GetNextOpen(ctx context.Context, roundType entities.RoundType) (*entities.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE type = $1 AND status IN ('scheduled', 'selling')
		ORDER BY starts_at ASC
		LIMIT 1
	`

	round, err := scanRound(r.q.QueryRow(ctx, query, roundType))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next open %s round: %w", roundType, err)
	}
	return round, nil
}

// GetDrawingRounds returns all rounds currently in drawing status
func (r *RoundRepository) GetDrawingRounds(ctx context.Context) ([]*entities.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE status = 'drawing'
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get drawing rounds: %w", err)
	}
	return collectRounds(rows)
}

// StartScheduled moves every due scheduled round to selling
func (r *RoundRepository) StartScheduled(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	query := `
		UPDATE rounds
		SET status = 'selling', is_selling = TRUE
		WHERE status = 'scheduled' AND starts_at <= $1
		RETURNING ` + roundColumns

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start scheduled rounds: %w", err)
	}
	return collectRounds(rows)
}

// CloseDueSelling drops is_selling on selling rounds past their selling window
func (r *RoundRepository) CloseDueSelling(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	query := `
		UPDATE rounds
		SET is_selling = FALSE
		WHERE status = 'selling' AND is_selling = TRUE AND selling_ends_at <= $1
		RETURNING ` + roundColumns

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close due selling rounds: %w", err)
	}
	return collectRounds(rows)
}

// StartDueDrawing moves selling rounds past ends_at into drawing
func (r *RoundRepository) StartDueDrawing(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	query := `
		UPDATE rounds
		SET status = 'drawing', is_selling = FALSE, drawing_started_at = NOW()
		WHERE status = 'selling' AND ends_at <= $1
		RETURNING ` + roundColumns

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start due drawing rounds: %w", err)
	}
	return collectRounds(rows)
}

// CloseSelling drops is_selling on one round while it is selling
func (r *RoundRepository) CloseSelling(ctx context.Context, roundID int64) (bool, error) {
	query := `
		UPDATE rounds
		SET is_selling = FALSE
		WHERE id = $1 AND status = 'selling' AND is_selling = TRUE
	`

	tag, err := r.q.Exec(ctx, query, roundID)
	if err != nil {
		return false, fmt.Errorf("failed to close selling for round %d: %w", roundID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// StartDrawing transitions one round from selling to drawing
func (r *RoundRepository) StartDrawing(ctx context.Context, roundID int64) (bool, error) {
	query := `
		UPDATE rounds
		SET status = 'drawing', is_selling = FALSE, drawing_started_at = NOW()
		WHERE id = $1 AND status = 'selling'
	`

	tag, err := r.q.Exec(ctx, query, roundID)
	if err != nil {
		return false, fmt.Errorf("failed to start drawing for round %d: %w", roundID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Finish transitions a round from selling or drawing to finished
func (r *RoundRepository) Finish(ctx context.Context, roundID int64) (bool, error) {
	query := `
		UPDATE rounds
		SET status = 'finished', is_selling = FALSE, finished_at = NOW()
		WHERE id = $1 AND status IN ('selling', 'drawing')
	`

	tag, err := r.q.Exec(ctx, query, roundID)
	if err != nil {
		return false, fmt.Errorf("failed to finish round %d: %w", roundID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel transitions a non-terminal round to cancelled
func (r *RoundRepository) Cancel(ctx context.Context, roundID int64) (bool, error) {
	query := `
		UPDATE rounds
		SET status = 'cancelled', is_selling = FALSE
		WHERE id = $1 AND status NOT IN ('finished', 'cancelled')
	`

	tag, err := r.q.Exec(ctx, query, roundID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel round %d: %w", roundID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// AppendDrawnNumber appends a number to the round's drawn sequence. The
// update only applies while the round is drawing, the number is absent and
// the current count matches expectedCount, so concurrent draws cannot
// corrupt the sequence.
func (r *RoundRepository) AppendDrawnNumber(ctx context.Context, roundID int64, number int32, expectedCount int) (bool, error) {
	query := `
		UPDATE rounds
		SET drawn_numbers = array_append(COALESCE(drawn_numbers, '{}'), $2)
		WHERE id = $1
		  AND status = 'drawing'
		  AND COALESCE(array_length(drawn_numbers, 1), 0) = $3
		  AND NOT ($2 = ANY(COALESCE(drawn_numbers, '{}')))
		  AND COALESCE(array_length(drawn_numbers, 1), 0) < 75
	`

	tag, err := r.q.Exec(ctx, query, roundID, number, expectedCount)
	if err != nil {
		return false, fmt.Errorf("failed to append drawn number to round %d: %w", roundID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ApplySettlement adds a settled purchase's figures to the round accumulators
func (r *RoundRepository) ApplySettlement(ctx context.Context, roundID int64, cardsSold int, totalSale, prize, charity, platform, commission int64) error {
	query := `
		UPDATE rounds
		SET cards_sold = cards_sold + $2,
		    total_sales = total_sales + $3,
		    prize_pool = prize_pool + $4,
		    charity_amount = charity_amount + $5,
		    platform_amount = platform_amount + $6,
		    commission_amount = commission_amount + $7
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, roundID, cardsSold, totalSale, prize, charity, platform, commission)
	if err != nil {
		return fmt.Errorf("failed to apply settlement to round %d: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d not found", roundID)
	}
	return nil
}
