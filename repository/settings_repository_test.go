package repository

import (
	"context"
	"testing"

	"sortebem/domain/entities"
	"sortebem/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_GetMissingKey(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewSettingsRepository(testDB.DB)

	var out map[string]any
	found, err := repo.Get(ctx, "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSettingsRepository_SetOverwrites(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewSettingsRepository(testDB.DB)

	require.NoError(t, repo.Set(ctx, "greeting", map[string]string{"text": "oi"}))
	require.NoError(t, repo.Set(ctx, "greeting", map[string]string{"text": "olá"}))

	var out map[string]string
	found, err := repo.Get(ctx, "greeting", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "olá", out["text"])
}

func TestSettingsRepository_TypedGettersFallBackToDefaults(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewSettingsRepository(testDB.DB)

	roundConfig, err := repo.GetRoundConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultRoundConfig(), roundConfig)

	splitConfig, err := repo.GetSplitConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSplitConfig(), splitConfig)

	patterns, err := repo.GetActivePatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultActivePatterns(), patterns)
}

func TestSettingsRepository_TypedGettersRoundTrip(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewSettingsRepository(testDB.DB)

	customRound := entities.RoundConfig{
		Regular:          entities.RoundTypeConfig{SellingMinutes: 10, ClosedMinutes: 5, CardPrice: 750},
		Special:          entities.RoundTypeConfig{SellingMinutes: 110, ClosedMinutes: 10, CardPrice: 2000},
		MaxCardsPerRound: 5000,
	}
	require.NoError(t, repo.Set(ctx, entities.SettingKeyRoundConfig, customRound))

	roundConfig, err := repo.GetRoundConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, customRound, roundConfig)

	customSplit := entities.SplitConfig{
		PrizePercentage:      50,
		CharityPercentage:    15,
		PlatformPercentage:   25,
		CommissionPercentage: 10,
	}
	require.NoError(t, repo.Set(ctx, entities.SettingKeySplitConfig, customSplit))

	splitConfig, err := repo.GetSplitConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, customSplit, splitConfig)

	require.NoError(t, repo.Set(ctx, entities.SettingKeyActivePatterns, []string{"four_corners", "full_card"}))
	patterns, err := repo.GetActivePatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"four_corners", "full_card"}, patterns)

	// An explicitly empty list still falls back
	require.NoError(t, repo.Set(ctx, entities.SettingKeyActivePatterns, []string{}))
	patterns, err = repo.GetActivePatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultActivePatterns(), patterns)
}
