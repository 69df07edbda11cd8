package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sortebem/application"
	"sortebem/database"
	"sortebem/domain/interfaces"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher

	roundRepo         interfaces.RoundRepository
	cardRepo          interfaces.CardRepository
	drawRepo          interfaces.DrawRepository
	winnerRepo        interfaces.WinnerRepository
	purchaseRepo      interfaces.PurchaseRepository
	settingsRepo      interfaces.SettingsRepository
	establishmentRepo interfaces.EstablishmentRepository
	managerRepo       interfaces.ManagerRepository
	charityRepo       interfaces.CharityRepository
}

type unitOfWorkFactory struct {
	db               *database.DB
	publisherFactory func() interfaces.TransactionalEventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. publisherFactory
// produces a fresh transactional publisher per unit of work so buffered
// events never leak across transactions.
func NewUnitOfWorkFactory(db *database.DB, publisherFactory func() interfaces.TransactionalEventPublisher) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:               db,
		publisherFactory: publisherFactory,
	}
}

// Create creates a new UnitOfWork
func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: f.publisherFactory(),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.roundRepo = NewRoundRepository(tx)
	u.cardRepo = NewCardRepository(tx)
	u.drawRepo = NewDrawRepository(tx)
	u.winnerRepo = NewWinnerRepository(tx)
	u.purchaseRepo = NewPurchaseRepository(tx)
	u.settingsRepo = NewSettingsRepository(tx)
	u.establishmentRepo = NewEstablishmentRepository(tx)
	u.managerRepo = NewManagerRepository(tx)
	u.charityRepo = NewCharityRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// RoundRepository returns the round repository for this unit of work
func (u *unitOfWork) RoundRepository() interfaces.RoundRepository {
	if u.roundRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roundRepo
}

// CardRepository returns the card repository for this unit of work
func (u *unitOfWork) CardRepository() interfaces.CardRepository {
	if u.cardRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.cardRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawRepo
}

// WinnerRepository returns the winner repository for this unit of work
func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	if u.winnerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.winnerRepo
}

// PurchaseRepository returns the purchase repository for this unit of work
func (u *unitOfWork) PurchaseRepository() interfaces.PurchaseRepository {
	if u.purchaseRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.purchaseRepo
}

// SettingsRepository returns the settings repository for this unit of work
func (u *unitOfWork) SettingsRepository() interfaces.SettingsRepository {
	if u.settingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.settingsRepo
}

// EstablishmentRepository returns the establishment repository for this unit of work
func (u *unitOfWork) EstablishmentRepository() interfaces.EstablishmentRepository {
	if u.establishmentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.establishmentRepo
}

// ManagerRepository returns the manager repository for this unit of work
func (u *unitOfWork) ManagerRepository() interfaces.ManagerRepository {
	if u.managerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.managerRepo
}

// CharityRepository returns the charity repository for this unit of work
func (u *unitOfWork) CharityRepository() interfaces.CharityRepository {
	if u.charityRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.charityRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
