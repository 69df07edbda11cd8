package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sortebem/domain/entities"
)

// EstablishmentRepository implements establishment partner data access
type EstablishmentRepository struct {
	q Queryable
}

// NewEstablishmentRepository creates a new establishment repository
func NewEstablishmentRepository(q Queryable) *EstablishmentRepository {
	return &EstablishmentRepository{q: q}
}

// GetByID retrieves an establishment by ID
func (r *EstablishmentRepository) GetByID(ctx context.Context, id int64) (*entities.Establishment, error) {
	query := `
		SELECT id, code, name, manager_id, commission_rate, balance, created_at
		FROM establishments
		WHERE id = $1
	`

	var e entities.Establishment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Code, &e.Name, &e.ManagerID, &e.CommissionRate, &e.Balance, &e.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get establishment %d: %w", id, err)
	}
	return &e, nil
}

// AddBalance credits commission to an establishment's balance
func (r *EstablishmentRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE establishments SET balance = balance + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("failed to add balance to establishment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("establishment %d not found", id)
	}
	return nil
}

// ManagerRepository implements manager partner data access
type ManagerRepository struct {
	q Queryable
}

// NewManagerRepository creates a new manager repository
func NewManagerRepository(q Queryable) *ManagerRepository {
	return &ManagerRepository{q: q}
}

// GetByID retrieves a manager by ID
func (r *ManagerRepository) GetByID(ctx context.Context, id int64) (*entities.Manager, error) {
	query := `
		SELECT id, code, name, commission_rate, balance, created_at
		FROM managers
		WHERE id = $1
	`

	var m entities.Manager
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Code, &m.Name, &m.CommissionRate, &m.Balance, &m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manager %d: %w", id, err)
	}
	return &m, nil
}

// AddBalance credits commission to a manager's balance
func (r *ManagerRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE managers SET balance = balance + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("failed to add balance to manager %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("manager %d not found", id)
	}
	return nil
}

// CharityRepository implements charity data access
type CharityRepository struct {
	q Queryable
}

// NewCharityRepository creates a new charity repository
func NewCharityRepository(q Queryable) *CharityRepository {
	return &CharityRepository{q: q}
}

// GetByID retrieves a charity by ID
func (r *CharityRepository) GetByID(ctx context.Context, id int64) (*entities.Charity, error) {
	query := `SELECT id, name, total_received, created_at FROM charities WHERE id = $1`

	var c entities.Charity
	err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.TotalReceived, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get charity %d: %w", id, err)
	}
	return &c, nil
}

// AddReceived credits the charity share to a charity's running total
func (r *CharityRepository) AddReceived(ctx context.Context, id int64, amount int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE charities SET total_received = total_received + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("failed to add received amount to charity %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("charity %d not found", id)
	}
	return nil
}
