package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"sortebem/domain/entities"
	"sortebem/domain/events"
	"sortebem/domain/interfaces"
)

// Lookahead windows for pre-creating the next round of each type. A round
// is created when no open round of the type exists, or when the only
// upcoming round is scheduled further out than the window.
const (
	regularRoundLookahead = 5 * time.Minute
	specialRoundLookahead = 30 * time.Minute
)

// RoundServiceImpl drives the round lifecycle: creation, the timed
// selling/waiting/drawing transitions, the number draw itself, and winner
// declaration. All state transitions are guarded updates so concurrent
// sweeps cannot double-apply them.
type RoundServiceImpl struct {
	roundRepo    interfaces.RoundRepository
	drawRepo     interfaces.DrawRepository
	cardRepo     interfaces.CardRepository
	winnerRepo   interfaces.WinnerRepository
	purchaseRepo interfaces.PurchaseRepository
	settingsRepo interfaces.SettingsRepository
	publisher    interfaces.EventPublisher
	random       interfaces.RandomSource
}

// NewRoundService creates the round lifecycle service
func NewRoundService(
	roundRepo interfaces.RoundRepository,
	drawRepo interfaces.DrawRepository,
	cardRepo interfaces.CardRepository,
	winnerRepo interfaces.WinnerRepository,
	purchaseRepo interfaces.PurchaseRepository,
	settingsRepo interfaces.SettingsRepository,
	publisher interfaces.EventPublisher,
	random interfaces.RandomSource,
) *RoundServiceImpl {
	return &RoundServiceImpl{
		roundRepo:    roundRepo,
		drawRepo:     drawRepo,
		cardRepo:     cardRepo,
		winnerRepo:   winnerRepo,
		purchaseRepo: purchaseRepo,
		settingsRepo: settingsRepo,
		publisher:    publisher,
		random:       random,
	}
}

// EnsureRounds guarantees an open round of each type exists, creating new
// ones as the lookahead windows demand.
func (s *RoundServiceImpl) EnsureRounds(ctx context.Context) error {
	now := time.Now()

	for _, rt := range []struct {
		roundType entities.RoundType
		lookahead time.Duration
	}{
		{entities.RoundTypeRegular, regularRoundLookahead},
		{entities.RoundTypeSpecial, specialRoundLookahead},
	} {
		next, err := s.roundRepo.GetNextOpen(ctx, rt.roundType)
		if err != nil {
			return fmt.Errorf("failed to get next open round: %w", err)
		}

		needsRound := next == nil ||
			(next.Status == entities.RoundStatusScheduled && next.StartsAt.After(now.Add(rt.lookahead)))
		if !needsRound {
			continue
		}

		if _, err := s.CreateRound(ctx, rt.roundType); err != nil {
			return fmt.Errorf("failed to create %s round: %w", rt.roundType, err)
		}
	}

	return nil
}

// AdvanceRounds applies every due timed transition: scheduled rounds begin
// selling, rounds past selling_ends_at stop selling, rounds past ends_at
// start drawing.
func (s *RoundServiceImpl) AdvanceRounds(ctx context.Context) error {
	now := time.Now()

	started, err := s.roundRepo.StartScheduled(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to start scheduled rounds: %w", err)
	}
	for _, round := range started {
		log.WithField("round", round.Number).Info("Round selling started")
		s.publishStatus(round.ID, round.Number, entities.RoundStatusSelling, true)
	}

	closed, err := s.roundRepo.CloseDueSelling(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to close due selling rounds: %w", err)
	}
	for _, round := range closed {
		log.WithField("round", round.Number).Info("Round selling closed, waiting period")
		s.publishStatus(round.ID, round.Number, entities.RoundStatusSelling, false)
	}

	drawing, err := s.roundRepo.StartDueDrawing(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to start due drawing rounds: %w", err)
	}
	for _, round := range drawing {
		log.WithField("round", round.Number).Info("Round drawing started")
		s.publishStatus(round.ID, round.Number, entities.RoundStatusDrawing, false)
	}

	return nil
}

// CreateRound creates a round of the given type that starts selling
// immediately. Timing and pricing come from the round_config setting.
func (s *RoundServiceImpl) CreateRound(ctx context.Context, roundType entities.RoundType) (*entities.Round, error) {
	config, err := s.settingsRepo.GetRoundConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load round config: %w", err)
	}
	typeConfig := config.ForType(roundType)

	now := time.Now()
	sellingEndsAt := now.Add(time.Duration(typeConfig.SellingMinutes) * time.Minute)
	endsAt := sellingEndsAt.Add(time.Duration(typeConfig.ClosedMinutes) * time.Minute)

	round := &entities.Round{
		Type:          roundType,
		Status:        entities.RoundStatusSelling,
		IsSelling:     true,
		CardPrice:     typeConfig.CardPrice,
		MaxCards:      config.MaxCardsPerRound,
		StartsAt:      now,
		SellingEndsAt: sellingEndsAt,
		EndsAt:        endsAt,
	}

	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	log.WithFields(log.Fields{
		"round":   round.Number,
		"type":    roundType,
		"selling": typeConfig.SellingMinutes,
		"closed":  typeConfig.ClosedMinutes,
	}).Info("Round created")

	if err := s.publisher.Publish(events.RoundCreatedEvent{
		RoundID:       round.ID,
		RoundNumber:   round.Number,
		RoundType:     roundType,
		CardPrice:     round.CardPrice,
		StartsAt:      round.StartsAt,
		SellingEndsAt: round.SellingEndsAt,
		EndsAt:        round.EndsAt,
		Status:        round.Status,
	}); err != nil {
		log.WithError(err).Error("Failed to publish round created event")
	}

	return round, nil
}

// CloseSelling ends the selling window of a round, keeping it open for
// drawing after the waiting period.
func (s *RoundServiceImpl) CloseSelling(ctx context.Context, roundID int64) error {
	round, err := s.requireRound(ctx, roundID)
	if err != nil {
		return err
	}

	applied, err := s.roundRepo.CloseSelling(ctx, roundID)
	if err != nil {
		return fmt.Errorf("failed to close selling: %w", err)
	}
	if !applied {
		return ErrRoundNotSelling
	}

	log.WithField("round", round.Number).Info("Round selling closed")
	s.publishStatus(roundID, round.Number, entities.RoundStatusSelling, false)
	return nil
}

// StartDrawing moves a selling round into its drawing phase
func (s *RoundServiceImpl) StartDrawing(ctx context.Context, roundID int64) error {
	round, err := s.requireRound(ctx, roundID)
	if err != nil {
		return err
	}

	applied, err := s.roundRepo.StartDrawing(ctx, roundID)
	if err != nil {
		return fmt.Errorf("failed to start drawing: %w", err)
	}
	if !applied {
		return ErrRoundNotSelling
	}

	log.WithField("round", round.Number).Info("Round drawing started")
	s.publishStatus(roundID, round.Number, entities.RoundStatusDrawing, false)
	return nil
}

// DrawNext draws one number for a round in drawing status. The number is
// sampled uniformly and resampled until it is outside the already-drawn
// set, then appended with a guard on the current count so a concurrent
// draw cannot produce duplicate positions.
func (s *RoundServiceImpl) DrawNext(ctx context.Context, roundID int64) (*interfaces.DrawResult, error) {
	round, err := s.roundRepo.GetByIDForUpdate(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}
	if round.Status != entities.RoundStatusDrawing {
		return nil, ErrRoundNotDrawing
	}
	if round.AllNumbersDrawn() {
		return nil, ErrAllNumbersDrawn
	}

	number, err := s.sampleUndrawn(round)
	if err != nil {
		return nil, err
	}
	position := round.NextDrawPosition()

	if err := s.drawRepo.Create(ctx, &entities.Draw{
		RoundID:  roundID,
		Number:   number,
		Position: position,
	}); err != nil {
		return nil, fmt.Errorf("failed to record draw: %w", err)
	}

	applied, err := s.roundRepo.AppendDrawnNumber(ctx, roundID, number, round.DrawnCount())
	if err != nil {
		return nil, fmt.Errorf("failed to append drawn number: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("round %d drawn numbers changed concurrently", roundID)
	}

	result := &interfaces.DrawResult{
		Number:   number,
		Position: position,
		Total:    position,
	}

	log.WithFields(log.Fields{
		"round":    round.Number,
		"number":   number,
		"position": position,
	}).Info("Number drawn")

	if err := s.publisher.Publish(events.NumberDrawnEvent{
		RoundID:  roundID,
		Number:   number,
		Position: position,
		Total:    result.Total,
	}); err != nil {
		log.WithError(err).Error("Failed to publish number drawn event")
	}

	return result, nil
}

// sampleUndrawn rejection-samples a number in [1, 75] not yet drawn
func (s *RoundServiceImpl) sampleUndrawn(round *entities.Round) (int32, error) {
	for {
		n, err := s.random.Intn(entities.TotalDrawableNumbers)
		if err != nil {
			return 0, fmt.Errorf("failed to draw number: %w", err)
		}
		number := int32(n) + 1
		if !round.HasDrawn(number) {
			return number, nil
		}
	}
}

// FinishRound closes a round from its selling or drawing phase
func (s *RoundServiceImpl) FinishRound(ctx context.Context, roundID int64) error {
	round, err := s.requireRound(ctx, roundID)
	if err != nil {
		return err
	}

	applied, err := s.roundRepo.Finish(ctx, roundID)
	if err != nil {
		return fmt.Errorf("failed to finish round: %w", err)
	}
	if !applied {
		return ErrRoundTerminal
	}

	log.WithField("round", round.Number).Info("Round finished")
	s.publishStatus(roundID, round.Number, entities.RoundStatusFinished, false)
	return nil
}

// CancelRound cancels a round and flags its paid purchases for refund
func (s *RoundServiceImpl) CancelRound(ctx context.Context, roundID int64) error {
	round, err := s.requireRound(ctx, roundID)
	if err != nil {
		return err
	}

	applied, err := s.roundRepo.Cancel(ctx, roundID)
	if err != nil {
		return fmt.Errorf("failed to cancel round: %w", err)
	}
	if !applied {
		return ErrRoundTerminal
	}

	refunded, err := s.purchaseRepo.RefundPaidByRound(ctx, roundID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to refund purchases: %w", err)
	}

	log.WithFields(log.Fields{
		"round":    round.Number,
		"refunded": refunded,
	}).Info("Round cancelled")
	s.publishStatus(roundID, round.Number, entities.RoundStatusCancelled, false)
	return nil
}

// AutoFinishExhausted finishes every drawing round that has drawn all 75
// numbers without a declared winner. Returns how many rounds were closed.
func (s *RoundServiceImpl) AutoFinishExhausted(ctx context.Context) (int, error) {
	rounds, err := s.roundRepo.GetDrawingRounds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get drawing rounds: %w", err)
	}

	finished := 0
	for _, round := range rounds {
		if !round.AllNumbersDrawn() {
			continue
		}

		applied, err := s.roundRepo.Finish(ctx, round.ID)
		if err != nil {
			log.WithError(err).WithField("round", round.Number).Error("Failed to auto-finish round")
			continue
		}
		if applied {
			finished++
			log.WithField("round", round.Number).Info("Round auto-finished, no winner")
			s.publishStatus(round.ID, round.Number, entities.RoundStatusFinished, false)
		}
	}

	return finished, nil
}

// DeclareWinner validates a claimed card against its round's drawn numbers
// and, when it completes an active pattern, records the winners and finishes
// the round. Every sold card that also completes a pattern at the same drawn
// set is recorded as a simultaneous winner; the prize pool is divided evenly
// across them, earlier cards taking the leftover centavos.
func (s *RoundServiceImpl) DeclareWinner(ctx context.Context, cardCode string) (*interfaces.DeclaredWinner, error) {
	card, err := s.cardRepo.GetByCode(ctx, cardCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card == nil {
		return nil, ErrCardNotFound
	}

	round, err := s.roundRepo.GetByIDForUpdate(ctx, card.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}
	if round.Status != entities.RoundStatusDrawing {
		return nil, ErrRoundNotDrawing
	}

	hasWinner, err := s.winnerRepo.ExistsForRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing winner: %w", err)
	}
	if hasWinner {
		return nil, ErrWinnerAlreadySet
	}

	patterns, err := s.settingsRepo.GetActivePatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active patterns: %w", err)
	}

	result := CheckWin(card.Numbers, round.DrawnNumbers, patterns)
	if !result.Won {
		return nil, ErrNoWinningPattern
	}

	soldCards, err := s.cardRepo.GetSoldByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sold cards: %w", err)
	}
	scan := soldCards
	claimedSold := false
	for _, c := range scan {
		if c.ID == card.ID {
			claimedSold = true
			break
		}
	}
	if !claimedSold {
		scan = append(scan, card)
	}

	wins := CheckMultipleCards(scan, round.DrawnNumbers, patterns)
	shares := ResolveTiebreakerDivision(round.PrizePool, len(wins))

	var declared *entities.Winner
	for i, win := range wins {
		winner := &entities.Winner{
			RoundID:     round.ID,
			CardID:      win.CardID,
			Pattern:     win.Pattern,
			PrizeAmount: shares[i],
			Status:      entities.WinnerStatusPending,
		}
		if err := s.winnerRepo.Create(ctx, winner); err != nil {
			return nil, fmt.Errorf("failed to create winner: %w", err)
		}
		if _, err := s.cardRepo.MarkWinner(ctx, win.CardID); err != nil {
			return nil, fmt.Errorf("failed to mark winning card: %w", err)
		}
		if win.CardID == card.ID {
			declared = winner
		}

		if err := s.publisher.Publish(events.WinnerDeclaredEvent{
			RoundID:     round.ID,
			CardID:      win.CardID,
			CardCode:    win.CardCode,
			Pattern:     win.Pattern,
			PrizeAmount: winner.PrizeAmount,
		}); err != nil {
			log.WithError(err).Error("Failed to publish winner declared event")
		}
	}

	applied, err := s.roundRepo.Finish(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to finish round: %w", err)
	}
	if applied {
		s.publishStatus(round.ID, round.Number, entities.RoundStatusFinished, false)
	}

	log.WithFields(log.Fields{
		"round":   round.Number,
		"card":    card.Code,
		"pattern": declared.Pattern,
		"prize":   declared.PrizeAmount,
		"winners": len(wins),
	}).Info("Winner declared")

	return &interfaces.DeclaredWinner{
		Winner:  declared,
		Card:    card,
		Pattern: declared.Pattern,
	}, nil
}

func (s *RoundServiceImpl) requireRound(ctx context.Context, roundID int64) (*entities.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}
	return round, nil
}

func (s *RoundServiceImpl) publishStatus(roundID, roundNumber int64, status entities.RoundStatus, isSelling bool) {
	if err := s.publisher.Publish(events.RoundStatusChangedEvent{
		RoundID:     roundID,
		RoundNumber: roundNumber,
		Status:      status,
		IsSelling:   isSelling,
		Timestamp:   time.Now(),
	}); err != nil {
		log.WithError(err).Error("Failed to publish round status event")
	}
}
