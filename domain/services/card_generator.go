package services

import (
	"context"
	"fmt"
	"sort"

	"sortebem/domain/entities"
	"sortebem/domain/interfaces"
)

// cardCodeAlphabet excludes ambiguous characters (0, O, I, l, 1)
const cardCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	cardCodePrefix = "SB-"
	cardCodeLength = 8
)

// cardColumn describes one column of the 5x5 grid: its number range and how
// many numbers it contributes. The center column contributes four because
// the middle cell is free.
type cardColumn struct {
	min, max, count int
}

var cardColumns = []cardColumn{
	{1, 15, 5},   // S
	{16, 30, 5},  // O
	{31, 45, 4},  // R, free center
	{46, 60, 5},  // T
	{61, 75, 5},  // E
}

// CardGeneratorService builds randomized cards and persists them with
// collision-free codes.
type CardGeneratorService struct {
	cardRepo interfaces.CardRepository
	random   interfaces.RandomSource
}

// NewCardGeneratorService creates a card generator
func NewCardGeneratorService(cardRepo interfaces.CardRepository, random interfaces.RandomSource) *CardGeneratorService {
	return &CardGeneratorService{
		cardRepo: cardRepo,
		random:   random,
	}
}

// GenerateCard creates and persists one card for a round. When purchaseID is
// nil the card is created unattached, available for later sale.
func (s *CardGeneratorService) GenerateCard(ctx context.Context, roundID int64, purchaseID *int64) (*entities.Card, error) {
	numbers, err := s.generateNumbers()
	if err != nil {
		return nil, fmt.Errorf("failed to generate card numbers: %w", err)
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	card := &entities.Card{
		Code:       code,
		RoundID:    roundID,
		PurchaseID: purchaseID,
		Numbers:    numbers,
		Status:     entities.CardStatusAvailable,
	}
	if purchaseID != nil {
		card.Status = entities.CardStatusSold
	}

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return card, nil
}

// GenerateCards creates count cards for a purchase
func (s *CardGeneratorService) GenerateCards(ctx context.Context, roundID int64, purchaseID *int64, count int) ([]*entities.Card, error) {
	cards := make([]*entities.Card, 0, count)
	for i := 0; i < count; i++ {
		card, err := s.GenerateCard(ctx, roundID, purchaseID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// generateNumbers produces the 24-number sequence in row-major grid order,
// each column sorted ascending within its range.
func (s *CardGeneratorService) generateNumbers() ([]int32, error) {
	columns := make([][]int32, len(cardColumns))
	for i, col := range cardColumns {
		picked, err := s.pickUnique(col.min, col.max, col.count)
		if err != nil {
			return nil, err
		}
		columns[i] = picked
	}

	colS, colO, colR, colT, colE := columns[0], columns[1], columns[2], columns[3], columns[4]

	// Row-major layout with the free center cell omitted from storage.
	return []int32{
		colS[0], colO[0], colR[0], colT[0], colE[0],
		colS[1], colO[1], colR[1], colT[1], colE[1],
		colS[2], colO[2] /* free */, colT[2], colE[2],
		colS[3], colO[3], colR[2], colT[3], colE[3],
		colS[4], colO[4], colR[3], colT[4], colE[4],
	}, nil
}

// pickUnique draws count distinct numbers from [min, max] and sorts them
func (s *CardGeneratorService) pickUnique(min, max, count int) ([]int32, error) {
	available := make([]int32, 0, max-min+1)
	for n := min; n <= max; n++ {
		available = append(available, int32(n))
	}

	picked := make([]int32, 0, count)
	for i := 0; i < count; i++ {
		idx, err := s.random.Intn(len(available))
		if err != nil {
			return nil, err
		}
		picked = append(picked, available[idx])
		available = append(available[:idx], available[idx+1:]...)
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })
	return picked, nil
}

// generateUniqueCode produces an SB- code not yet present in storage.
// Collisions regenerate until a free code turns up; only storage errors
// propagate.
func (s *CardGeneratorService) generateUniqueCode(ctx context.Context) (string, error) {
	for {
		code, err := s.randomCode()
		if err != nil {
			return "", err
		}

		exists, err := s.cardRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check card code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}

func (s *CardGeneratorService) randomCode() (string, error) {
	buf := make([]byte, cardCodeLength)
	for i := range buf {
		idx, err := s.random.Intn(len(cardCodeAlphabet))
		if err != nil {
			return "", fmt.Errorf("failed to generate card code: %w", err)
		}
		buf[i] = cardCodeAlphabet[idx]
	}
	return cardCodePrefix + string(buf), nil
}
