package entities

// Settings keys stored in the key/JSON configuration table
const (
	SettingKeyRoundConfig    = "round_config"
	SettingKeySplitConfig    = "split_config"
	SettingKeyActivePatterns = "active_patterns"
)

// RoundTypeConfig holds the timing and pricing of one round type
type RoundTypeConfig struct {
	SellingMinutes int   `json:"selling_minutes"`
	ClosedMinutes  int   `json:"closed_minutes"`
	CardPrice      int64 `json:"card_price"` // centavos
}

// RoundConfig is the per-type round configuration
type RoundConfig struct {
	Regular          RoundTypeConfig `json:"regular"`
	Special          RoundTypeConfig `json:"special"`
	MaxCardsPerRound int             `json:"max_cards_per_round"`
}

// ForType returns the config slice for a round type
func (c RoundConfig) ForType(t RoundType) RoundTypeConfig {
	if t == RoundTypeSpecial {
		return c.Special
	}
	return c.Regular
}

// DefaultRoundConfig mirrors the seeded production defaults
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		Regular:          RoundTypeConfig{SellingMinutes: 7, ClosedMinutes: 3, CardPrice: 500},
		Special:          RoundTypeConfig{SellingMinutes: 57, ClosedMinutes: 3, CardPrice: 1000},
		MaxCardsPerRound: 10000,
	}
}

// SplitConfig holds the financial split percentages applied at settlement.
// The four percentages are expected to cover the whole sale; the engine
// applies them as given and does not re-normalize.
type SplitConfig struct {
	PrizePercentage      float64 `json:"prize_percentage"`
	CharityPercentage    float64 `json:"charity_percentage"`
	PlatformPercentage   float64 `json:"platform_percentage"`
	CommissionPercentage float64 `json:"commission_percentage"`
}

// DefaultSplitConfig is the fallback split when no setting row exists
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		PrizePercentage:      40,
		CharityPercentage:    20,
		PlatformPercentage:   30,
		CommissionPercentage: 10,
	}
}

// DefaultActivePatterns is the fallback win-pattern list for a round
func DefaultActivePatterns() []string {
	return []string{"line_horizontal", "line_vertical", "diagonal", "full_card"}
}
