package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sortebem/domain/entities"
)

// SettingsRepository implements the key/JSON configuration store
type SettingsRepository struct {
	q Queryable
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(q Queryable) *SettingsRepository {
	return &SettingsRepository{q: q}
}

// Get decodes the JSON value stored under key into out. Returns false with
// no error when the key is absent.
func (r *SettingsRepository) Get(ctx context.Context, key string, out any) (bool, error) {
	var raw []byte
	err := r.q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return true, nil
}

// Set stores a JSON value under key, replacing any previous value
func (r *SettingsRepository) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, key, raw); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetRoundConfig returns round timing/pricing config, falling back to the
// defaults when the setting row is absent.
func (r *SettingsRepository) GetRoundConfig(ctx context.Context) (entities.RoundConfig, error) {
	config := entities.DefaultRoundConfig()
	found, err := r.Get(ctx, entities.SettingKeyRoundConfig, &config)
	if err != nil {
		return entities.RoundConfig{}, err
	}
	if !found {
		return entities.DefaultRoundConfig(), nil
	}
	return config, nil
}

// GetSplitConfig returns the settlement split config or defaults
func (r *SettingsRepository) GetSplitConfig(ctx context.Context) (entities.SplitConfig, error) {
	config := entities.DefaultSplitConfig()
	found, err := r.Get(ctx, entities.SettingKeySplitConfig, &config)
	if err != nil {
		return entities.SplitConfig{}, err
	}
	if !found {
		return entities.DefaultSplitConfig(), nil
	}
	return config, nil
}

// GetActivePatterns returns the active win-pattern list or defaults
func (r *SettingsRepository) GetActivePatterns(ctx context.Context) ([]string, error) {
	var patterns []string
	found, err := r.Get(ctx, entities.SettingKeyActivePatterns, &patterns)
	if err != nil {
		return nil, err
	}
	if !found || len(patterns) == 0 {
		return entities.DefaultActivePatterns(), nil
	}
	return patterns, nil
}
