package interfaces

import (
	"context"
	"time"

	"sortebem/domain/entities"
)

// RoundRepository defines round data access. Transition methods are guarded
// conditional updates: the boolean result reports whether the transition
// actually took effect, so concurrent sweeps collapse into at most one
// effective transition without explicit locking.
type RoundRepository interface {
	// Create inserts a round, assigning the next sequence number atomically
	Create(ctx context.Context, round *entities.Round) error

	// GetByID retrieves a round by its ID
	GetByID(ctx context.Context, id int64) (*entities.Round, error)

	// GetByIDForUpdate retrieves a round by ID with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Round, error)

	// GetNextOpen returns the earliest scheduled or selling round of a type
	GetNextOpen(ctx context.Context, roundType entities.RoundType) (*entities.Round, error)

	// GetDrawingRounds returns all rounds currently in drawing status
	GetDrawingRounds(ctx context.Context) ([]*entities.Round, error)

	// StartScheduled moves due scheduled rounds to selling, returning those affected
	StartScheduled(ctx context.Context, now time.Time) ([]*entities.Round, error)

	// CloseDueSelling drops is_selling on selling rounds past their selling window
	CloseDueSelling(ctx context.Context, now time.Time) ([]*entities.Round, error)

	// StartDueDrawing moves selling rounds past ends_at to drawing
	StartDueDrawing(ctx context.Context, now time.Time) ([]*entities.Round, error)

	// CloseSelling drops is_selling on one round while it is selling
	CloseSelling(ctx context.Context, roundID int64) (bool, error)

	// StartDrawing transitions one round from selling to drawing
	StartDrawing(ctx context.Context, roundID int64) (bool, error)

	// Finish transitions a round from selling or drawing to finished
	Finish(ctx context.Context, roundID int64) (bool, error)

	// Cancel transitions a non-terminal round to cancelled
	Cancel(ctx context.Context, roundID int64) (bool, error)

	// AppendDrawnNumber appends a number to the round's drawn sequence iff the
	// round is still drawing and its drawn count equals expectedCount
	AppendDrawnNumber(ctx context.Context, roundID int64, number int32, expectedCount int) (bool, error)

	// ApplySettlement adds a settled purchase's figures to the round accumulators
	ApplySettlement(ctx context.Context, roundID int64, cardsSold int, totalSale, prize, charity, platform, commission int64) error
}

// CardRepository defines card data access
type CardRepository interface {
	// Create persists a generated card
	Create(ctx context.Context, card *entities.Card) error

	// CodeExists reports whether a card code is already taken
	CodeExists(ctx context.Context, code string) (bool, error)

	// GetByCode retrieves a card by its human-readable code
	GetByCode(ctx context.Context, code string) (*entities.Card, error)

	// GetByPurchase returns all cards bound to a purchase
	GetByPurchase(ctx context.Context, purchaseID int64) ([]*entities.Card, error)

	// GetSoldByRound returns all sold cards of a round
	GetSoldByRound(ctx context.Context, roundID int64) ([]*entities.Card, error)

	// MarkSold flips a purchase's cards to sold
	MarkSold(ctx context.Context, purchaseID int64) error

	// ReleaseByPurchase reverts a purchase's cards to available and unlinks them
	ReleaseByPurchase(ctx context.Context, purchaseID int64) error

	// MarkWinner sets the monotonic winner flag; false when already set
	MarkWinner(ctx context.Context, cardID int64) (bool, error)
}

// DrawRepository defines per-draw record access
type DrawRepository interface {
	// Create inserts one draw record
	Create(ctx context.Context, draw *entities.Draw) error

	// GetByRound returns a round's draws ordered by position
	GetByRound(ctx context.Context, roundID int64) ([]*entities.Draw, error)

	// CountByRound returns how many draws a round holds
	CountByRound(ctx context.Context, roundID int64) (int, error)
}

// WinnerRepository defines winner record access
type WinnerRepository interface {
	// Create inserts a winner record
	Create(ctx context.Context, winner *entities.Winner) error

	// GetByRound returns a round's winners in creation order
	GetByRound(ctx context.Context, roundID int64) ([]*entities.Winner, error)

	// ExistsForRound reports whether the round already has a winner
	ExistsForRound(ctx context.Context, roundID int64) (bool, error)
}

// PurchaseRepository defines purchase data access
type PurchaseRepository interface {
	// Create inserts a purchase
	Create(ctx context.Context, purchase *entities.Purchase) error

	// GetByID retrieves a purchase by ID
	GetByID(ctx context.Context, id int64) (*entities.Purchase, error)

	// MarkPaid moves a pending purchase to paid; false when it already left pending
	MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error)

	// MarkSettled stamps settled_at iff the purchase is paid and unsettled.
	// This is the settlement idempotency guard.
	MarkSettled(ctx context.Context, id int64, settledAt time.Time) (bool, error)

	// MarkRefunded moves a paid purchase to refunded
	MarkRefunded(ctx context.Context, id int64, refundedAt time.Time) (bool, error)

	// GetUnsettledPaid returns paid purchases not yet settled, oldest first
	GetUnsettledPaid(ctx context.Context, limit int) ([]*entities.Purchase, error)

	// RefundPaidByRound marks all paid purchases of a round refunded,
	// returning how many were affected
	RefundPaidByRound(ctx context.Context, roundID int64, refundedAt time.Time) (int64, error)

	// ExpirePending marks pending purchases past their expiry as expired
	ExpirePending(ctx context.Context, now time.Time) (int64, error)

	// DeleteStale removes cancelled/expired purchases created before the cutoff
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// SettingsRepository is the key/JSON configuration store. Typed getters
// fall back to the documented defaults when a key is absent.
type SettingsRepository interface {
	// Get decodes the JSON value for key into out; false when the key is absent
	Get(ctx context.Context, key string, out any) (bool, error)

	// Set stores a JSON value under key, replacing any previous value
	Set(ctx context.Context, key string, value any) error

	// GetRoundConfig returns round timing/pricing config or defaults
	GetRoundConfig(ctx context.Context) (entities.RoundConfig, error)

	// GetSplitConfig returns the settlement split config or defaults
	GetSplitConfig(ctx context.Context) (entities.SplitConfig, error)

	// GetActivePatterns returns the active win-pattern list or defaults
	GetActivePatterns(ctx context.Context) ([]string, error)
}

// EstablishmentRepository defines establishment partner data access
type EstablishmentRepository interface {
	// GetByID retrieves an establishment by ID
	GetByID(ctx context.Context, id int64) (*entities.Establishment, error)

	// AddBalance credits commission to an establishment's balance
	AddBalance(ctx context.Context, id int64, amount int64) error
}

// ManagerRepository defines manager partner data access
type ManagerRepository interface {
	// GetByID retrieves a manager by ID
	GetByID(ctx context.Context, id int64) (*entities.Manager, error)

	// AddBalance credits commission to a manager's balance
	AddBalance(ctx context.Context, id int64, amount int64) error
}

// CharityRepository defines charity data access
type CharityRepository interface {
	// GetByID retrieves a charity by ID
	GetByID(ctx context.Context, id int64) (*entities.Charity, error)

	// AddReceived credits the charity share to a charity's running total
	AddReceived(ctx context.Context, id int64, amount int64) error
}
