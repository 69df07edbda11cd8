package services

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"sortebem/domain/entities"
)

// winPatterns maps each pattern name to its variations. Each variation is a
// list of positions into the card's 24-number sequence; position 12 is the
// free cell and is always considered marked. The position lists are the
// authoritative contract for which cards win and are kept exactly as the
// game defines them.
var winPatterns = map[string][][]int{
	"line_horizontal": {
		{0, 1, 2, 3, 4},
		{5, 6, 7, 8, 9},
		{10, 11, 13, 14}, // center row, free cell skipped
		{15, 16, 17, 18, 19},
		{20, 21, 22, 23},
	},
	"line_vertical": {
		{0, 5, 10, 15, 20},
		{1, 6, 11, 16, 21},
		{2, 7, 17, 22}, // center column, free cell skipped
		{3, 8, 13, 18, 23},
		{4, 9, 14, 19},
	},
	"diagonal": {
		{0, 6, 18},
		{4, 8, 16},
	},
	"full_card": {
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23},
	},
	"format_x": {
		{0, 6, 8, 4, 18, 16},
	},
	"format_l": {
		{0, 5, 10, 15, 20, 21, 22, 23},
		{4, 9, 14, 19, 20, 21, 22, 23},
	},
	"format_t": {
		{0, 1, 2, 3, 4, 8, 13, 18, 23},
		{20, 21, 22, 23, 7, 2},
	},
	"four_corners": {
		{0, 4, 20, 23},
	},
}

// WinResult is the outcome of checking a single card
type WinResult struct {
	Won       bool
	Pattern   string
	Variation []int
}

// CardWin identifies a winning card found during a multi-card scan
type CardWin struct {
	CardID    int64
	CardCode  string
	Numbers   []int32
	Pattern   string
	Variation []int
}

// CheckWin tests a card's 24 numbers against the drawn set for the given
// patterns. Patterns are scanned in the caller-supplied order and variations
// in their defined order; the first satisfied variation wins. That ordering
// is the tie-break priority policy and must not be changed.
func CheckWin(cardNumbers []int32, drawnNumbers []int32, activePatterns []string) WinResult {
	drawnSet := make(map[int32]struct{}, len(drawnNumbers))
	for _, n := range drawnNumbers {
		drawnSet[n] = struct{}{}
	}

	for _, patternName := range activePatterns {
		variations, ok := winPatterns[patternName]
		if !ok {
			log.WithField("pattern", patternName).Warn("unknown win pattern, skipping")
			continue
		}

		for _, positions := range variations {
			allMarked := true
			for _, pos := range positions {
				if pos == entities.FreeCellIndex {
					continue
				}
				if _, drawn := drawnSet[cardNumbers[pos]]; !drawn {
					allMarked = false
					break
				}
			}

			if allMarked {
				return WinResult{Won: true, Pattern: patternName, Variation: positions}
			}
		}
	}

	return WinResult{}
}

// CheckMultipleCards scans a card collection and returns the winners,
// preserving input order.
func CheckMultipleCards(cards []*entities.Card, drawnNumbers []int32, activePatterns []string) []CardWin {
	var winners []CardWin
	for _, card := range cards {
		result := CheckWin(card.Numbers, drawnNumbers, activePatterns)
		if result.Won {
			winners = append(winners, CardWin{
				CardID:    card.ID,
				CardCode:  card.Code,
				Numbers:   card.Numbers,
				Pattern:   result.Pattern,
				Variation: result.Variation,
			})
		}
	}
	return winners
}

// AvailablePatterns lists every pattern name the checker knows
func AvailablePatterns() []string {
	names := make([]string, 0, len(winPatterns))
	for name := range winPatterns {
		names = append(names, name)
	}
	return names
}

// ValidatePatterns reports whether every name is a known pattern
func ValidatePatterns(patterns []string) bool {
	for _, p := range patterns {
		if _, ok := winPatterns[p]; !ok {
			return false
		}
	}
	return true
}

// TiebreakerDistance is the absolute distance between a card number and the
// tiebreaker ("pedra") number
func TiebreakerDistance(cardNumber, tiebreaker int32) int32 {
	d := cardNumber - tiebreaker
	if d < 0 {
		return -d
	}
	return d
}

// PedraWinner is the outright winner picked by numeric proximity
type PedraWinner struct {
	CardWin
	ClosestNumber int32
	Distance      int32
}

// ResolveTiebreakerPedra ranks simultaneous winners by the distance between
// their closest own number and the tiebreaker number. The smallest minimum
// distance wins outright; on equal distance the earlier winner stands.
func ResolveTiebreakerPedra(winners []CardWin, tiebreaker int32) *PedraWinner {
	var best *PedraWinner
	for _, w := range winners {
		closest := w.Numbers[0]
		minDist := TiebreakerDistance(w.Numbers[0], tiebreaker)
		for _, n := range w.Numbers[1:] {
			if d := TiebreakerDistance(n, tiebreaker); d < minDist {
				minDist = d
				closest = n
			}
		}
		if best == nil || minDist < best.Distance {
			best = &PedraWinner{CardWin: w, ClosestNumber: closest, Distance: minDist}
		}
	}
	return best
}

// ResolveTiebreakerDivision splits a prize pool evenly across simultaneous
// winners. Shares are whole centavos; the leftover centavos go to the
// earliest winners so the shares always sum to the pool.
func ResolveTiebreakerDivision(totalPrize int64, winnerCount int) []int64 {
	if winnerCount <= 0 {
		return nil
	}

	total := decimal.NewFromInt(totalPrize)
	base := total.Div(decimal.NewFromInt(int64(winnerCount))).Floor().IntPart()

	shares := make([]int64, winnerCount)
	remainder := totalPrize - base*int64(winnerCount)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}
