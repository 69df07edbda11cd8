package application

import (
	"context"

	"sortebem/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations.
// Events published through EventBus during the transaction are buffered and
// flushed only after a successful commit.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	RoundRepository() interfaces.RoundRepository
	CardRepository() interfaces.CardRepository
	DrawRepository() interfaces.DrawRepository
	WinnerRepository() interfaces.WinnerRepository
	PurchaseRepository() interfaces.PurchaseRepository
	SettingsRepository() interfaces.SettingsRepository
	EstablishmentRepository() interfaces.EstablishmentRepository
	ManagerRepository() interfaces.ManagerRepository
	CharityRepository() interfaces.CharityRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork
	Create() UnitOfWork
}
