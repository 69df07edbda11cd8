package interfaces

import (
	"context"

	"sortebem/domain/entities"
	"sortebem/domain/events"
)

// EventPublisher publishes domain events to the message bus
type EventPublisher interface {
	// Publish publishes an event
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding
// transaction commits, then flushes them to the bus
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all buffered events; called after commit
	Flush(ctx context.Context) error

	// Discard drops all buffered events; called on rollback
	Discard()
}

// RandomSource supplies uniform random integers. The production source is
// crypto-backed; tests substitute a deterministic one.
type RandomSource interface {
	// Intn returns a uniform random int in [0, n)
	Intn(n int) (int, error)
}

// CardNotifier delivers card codes to a purchaser after settlement.
// Best-effort: callers never treat its failure as a settlement failure.
type CardNotifier interface {
	// SendCards sends the card codes for a round to a destination
	SendCards(ctx context.Context, destination string, cardCodes []string, round *entities.Round) error
}

// CardDelivery is the buyer notification a settlement leaves pending.
// The settling transaction only records it; callers send it after their
// transaction has committed. Destination is empty when the purchase has
// no delivery contact.
type CardDelivery struct {
	Destination string
	CardCodes   []string
	Round       *entities.Round
}

// DrawResult describes one completed draw step
type DrawResult struct {
	Number   int32
	Position int
	Total    int
}

// DeclaredWinner describes the outcome of a victory declaration
type DeclaredWinner struct {
	Winner  *entities.Winner
	Card    *entities.Card
	Pattern string
}

// RoundService owns the round lifecycle state machine and the draw engine
type RoundService interface {
	// EnsureRounds creates the next regular/special rounds when none are
	// open or the upcoming scheduled round starts within its lookahead
	EnsureRounds(ctx context.Context) error

	// AdvanceRounds applies all time-driven transitions that are due:
	// scheduled->selling, selling-window close, selling->drawing
	AdvanceRounds(ctx context.Context) error

	// CreateRound creates a round of the given type, selling immediately
	CreateRound(ctx context.Context, roundType entities.RoundType) (*entities.Round, error)

	// CloseSelling closes a round's selling window as a direct action
	CloseSelling(ctx context.Context, roundID int64) error

	// StartDrawing starts a round's drawing phase as a direct action
	StartDrawing(ctx context.Context, roundID int64) error

	// DrawNext draws one number for a drawing round
	DrawNext(ctx context.Context, roundID int64) (*DrawResult, error)

	// FinishRound finishes a round from selling or drawing
	FinishRound(ctx context.Context, roundID int64) error

	// CancelRound cancels a non-terminal round and refunds its paid purchases
	CancelRound(ctx context.Context, roundID int64) error

	// AutoFinishExhausted finishes drawing rounds that exhausted the number
	// space without a winner
	AutoFinishExhausted(ctx context.Context) (int, error)

	// DeclareWinner validates a card against the round's draws and active
	// patterns, records every simultaneous winner with an even prize split
	// and finishes the round
	DeclareWinner(ctx context.Context, cardCode string) (*DeclaredWinner, error)
}

// CardGenerator produces valid cards bound to a round
type CardGenerator interface {
	// GenerateCard produces and persists one card for a round
	GenerateCard(ctx context.Context, roundID int64, purchaseID *int64) (*entities.Card, error)

	// GenerateCards produces count independent cards
	GenerateCards(ctx context.Context, roundID int64, purchaseID *int64, count int) ([]*entities.Card, error)
}

// SettlementService applies the financial split once a purchase is paid
type SettlementService interface {
	// SettlePurchase settles one paid purchase, returning the pending card
	// delivery when the settlement was applied and nil when it was a no-op.
	// Callers send the delivery only after their transaction commits.
	SettlePurchase(ctx context.Context, purchaseID int64) (*CardDelivery, error)

	// RefundPurchase reverses a paid purchase, releasing its cards
	RefundPurchase(ctx context.Context, purchaseID int64) error
}
