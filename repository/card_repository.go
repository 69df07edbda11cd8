package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sortebem/domain/entities"
)

const cardColumns = `id, code, round_id, purchase_id, numbers, status, is_winner, created_at`

// CardRepository implements card data access
type CardRepository struct {
	q Queryable
}

// NewCardRepository creates a new card repository
func NewCardRepository(q Queryable) *CardRepository {
	return &CardRepository{q: q}
}

func scanCard(row pgx.Row) (*entities.Card, error) {
	var card entities.Card
	err := row.Scan(
		&card.ID,
		&card.Code,
		&card.RoundID,
		&card.PurchaseID,
		&card.Numbers,
		&card.Status,
		&card.IsWinner,
		&card.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func collectCards(rows pgx.Rows) ([]*entities.Card, error) {
	defer rows.Close()

	var cards []*entities.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}

// Create persists a generated card
func (r *CardRepository) Create(ctx context.Context, card *entities.Card) error {
	query := `
		INSERT INTO cards (code, round_id, purchase_id, numbers, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		card.Code,
		card.RoundID,
		card.PurchaseID,
		card.Numbers,
		card.Status,
	).Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// CodeExists reports whether a card code is already taken
func (r *CardRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cards WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check card code: %w", err)
	}
	return exists, nil
}

// GetByCode retrieves a card by its human-readable code
func (r *CardRepository) GetByCode(ctx context.Context, code string) (*entities.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE code = $1`

	card, err := scanCard(r.q.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card by code %s: %w", code, err)
	}
	return card, nil
}

// GetByPurchase returns all cards bound to a purchase
func (r *CardRepository) GetByPurchase(ctx context.Context, purchaseID int64) ([]*entities.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE purchase_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for purchase %d: %w", purchaseID, err)
	}
	return collectCards(rows)
}

// GetSoldByRound returns all sold cards of a round
func (r *CardRepository) GetSoldByRound(ctx context.Context, roundID int64) ([]*entities.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE round_id = $1 AND status = 'sold' ORDER BY id`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sold cards for round %d: %w", roundID, err)
	}
	return collectCards(rows)
}

// MarkSold flips a purchase's cards to sold
func (r *CardRepository) MarkSold(ctx context.Context, purchaseID int64) error {
	_, err := r.q.Exec(ctx, `UPDATE cards SET status = 'sold' WHERE purchase_id = $1`, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to mark cards sold for purchase %d: %w", purchaseID, err)
	}
	return nil
}

// ReleaseByPurchase reverts a purchase's cards to available and unlinks them
func (r *CardRepository) ReleaseByPurchase(ctx context.Context, purchaseID int64) error {
	query := `
		UPDATE cards
		SET status = 'available', purchase_id = NULL
		WHERE purchase_id = $1
	`

	_, err := r.q.Exec(ctx, query, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to release cards for purchase %d: %w", purchaseID, err)
	}
	return nil
}

// MarkWinner sets the winner flag on a card. The flag is monotonic: a card
// already flagged stays flagged and the call reports false.
func (r *CardRepository) MarkWinner(ctx context.Context, cardID int64) (bool, error) {
	query := `UPDATE cards SET is_winner = TRUE WHERE id = $1 AND is_winner = FALSE`

	tag, err := r.q.Exec(ctx, query, cardID)
	if err != nil {
		return false, fmt.Errorf("failed to mark card %d as winner: %w", cardID, err)
	}
	return tag.RowsAffected() > 0, nil
}
