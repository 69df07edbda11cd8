package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sortebem/domain/entities"
	"sortebem/domain/events"
	"sortebem/domain/interfaces"
	"sortebem/domain/testhelpers"
)

type roundServiceMocks struct {
	roundRepo    *testhelpers.MockRoundRepository
	drawRepo     *testhelpers.MockDrawRepository
	cardRepo     *testhelpers.MockCardRepository
	winnerRepo   *testhelpers.MockWinnerRepository
	purchaseRepo *testhelpers.MockPurchaseRepository
	settingsRepo *testhelpers.MockSettingsRepository
	publisher    *testhelpers.MockEventPublisher
	random       *testhelpers.SequenceRandomSource
}

func newRoundServiceWithMocks(randomValues ...int) (*RoundServiceImpl, *roundServiceMocks) {
	if len(randomValues) == 0 {
		randomValues = []int{0}
	}
	m := &roundServiceMocks{
		roundRepo:    new(testhelpers.MockRoundRepository),
		drawRepo:     new(testhelpers.MockDrawRepository),
		cardRepo:     new(testhelpers.MockCardRepository),
		winnerRepo:   new(testhelpers.MockWinnerRepository),
		purchaseRepo: new(testhelpers.MockPurchaseRepository),
		settingsRepo: new(testhelpers.MockSettingsRepository),
		publisher:    new(testhelpers.MockEventPublisher),
		random:       &testhelpers.SequenceRandomSource{Values: randomValues},
	}
	svc := NewRoundService(m.roundRepo, m.drawRepo, m.cardRepo, m.winnerRepo,
		m.purchaseRepo, m.settingsRepo, m.publisher, m.random)
	return svc, m
}

func sellingRound(id int64) *entities.Round {
	now := time.Now()
	return &entities.Round{
		ID:            id,
		Number:        id,
		Type:          entities.RoundTypeRegular,
		Status:        entities.RoundStatusSelling,
		IsSelling:     true,
		StartsAt:      now,
		SellingEndsAt: now.Add(7 * time.Minute),
		EndsAt:        now.Add(10 * time.Minute),
	}
}

func drawingRound(id int64, drawn ...int32) *entities.Round {
	round := sellingRound(id)
	round.Status = entities.RoundStatusDrawing
	round.IsSelling = false
	round.DrawnNumbers = drawn
	return round
}

func TestCreateRound_UsesConfigAndPublishes(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.settingsRepo.On("GetRoundConfig", ctx).Return(entities.DefaultRoundConfig(), nil)
	m.roundRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.Round) bool {
		return r.Status == entities.RoundStatusSelling &&
			r.IsSelling &&
			r.CardPrice == 500 &&
			r.MaxCards == 10000 &&
			r.SellingEndsAt.Sub(r.StartsAt) == 7*time.Minute &&
			r.EndsAt.Sub(r.SellingEndsAt) == 3*time.Minute
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Round).ID = 11
		args.Get(1).(*entities.Round).Number = 11
	}).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	round, err := svc.CreateRound(ctx, entities.RoundTypeRegular)
	require.NoError(t, err)
	assert.Equal(t, int64(11), round.ID)

	require.Len(t, m.publisher.Events, 1)
	created, ok := m.publisher.Events[0].(events.RoundCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(11), created.RoundID)
	assert.Equal(t, entities.RoundTypeRegular, created.RoundType)
}

func TestCreateRound_SpecialTiming(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.settingsRepo.On("GetRoundConfig", ctx).Return(entities.DefaultRoundConfig(), nil)
	m.roundRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.Round) bool {
		return r.Type == entities.RoundTypeSpecial &&
			r.CardPrice == 1000 &&
			r.SellingEndsAt.Sub(r.StartsAt) == 57*time.Minute
	})).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	_, err := svc.CreateRound(ctx, entities.RoundTypeSpecial)
	require.NoError(t, err)
	m.roundRepo.AssertExpectations(t)
}

func TestEnsureRounds_CreatesWhenNoneOpen(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.roundRepo.On("GetNextOpen", ctx, entities.RoundTypeRegular).Return(nil, nil)
	m.roundRepo.On("GetNextOpen", ctx, entities.RoundTypeSpecial).Return(sellingRound(2), nil)
	m.settingsRepo.On("GetRoundConfig", ctx).Return(entities.DefaultRoundConfig(), nil)
	m.roundRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.Round) bool {
		return r.Type == entities.RoundTypeRegular
	})).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	require.NoError(t, svc.EnsureRounds(ctx))
	m.roundRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestEnsureRounds_SkipsWhenSellingRoundOpen(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.roundRepo.On("GetNextOpen", ctx, entities.RoundTypeRegular).Return(sellingRound(1), nil)
	m.roundRepo.On("GetNextOpen", ctx, entities.RoundTypeSpecial).Return(sellingRound(2), nil)

	require.NoError(t, svc.EnsureRounds(ctx))
	m.roundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsureRounds_CreatesWhenScheduledTooFarOut(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	farOut := sellingRound(1)
	farOut.Status = entities.RoundStatusScheduled
	farOut.StartsAt = time.Now().Add(2 * time.Hour)

	m.roundRepo.On("GetNextOpen", ctx, entities.RoundTypeRegular).Return(farOut, nil)
	m.roundRepo.On("GetNextOpen", ctx, entities.RoundTypeSpecial).Return(sellingRound(2), nil)
	m.settingsRepo.On("GetRoundConfig", ctx).Return(entities.DefaultRoundConfig(), nil)
	m.roundRepo.On("Create", ctx, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	require.NoError(t, svc.EnsureRounds(ctx))
	m.roundRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAdvanceRounds_PublishesEachTransition(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.roundRepo.On("StartScheduled", ctx, mock.Anything).Return([]*entities.Round{sellingRound(1)}, nil)
	m.roundRepo.On("CloseDueSelling", ctx, mock.Anything).Return([]*entities.Round{sellingRound(2)}, nil)
	m.roundRepo.On("StartDueDrawing", ctx, mock.Anything).Return([]*entities.Round{drawingRound(3)}, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	require.NoError(t, svc.AdvanceRounds(ctx))

	require.Len(t, m.publisher.Events, 3)
	first := m.publisher.Events[0].(events.RoundStatusChangedEvent)
	assert.Equal(t, entities.RoundStatusSelling, first.Status)
	assert.True(t, first.IsSelling)
	second := m.publisher.Events[1].(events.RoundStatusChangedEvent)
	assert.Equal(t, entities.RoundStatusSelling, second.Status)
	assert.False(t, second.IsSelling)
	third := m.publisher.Events[2].(events.RoundStatusChangedEvent)
	assert.Equal(t, entities.RoundStatusDrawing, third.Status)
}

func TestDrawNext_DrawsAndAppends(t *testing.T) {
	// random yields 41 -> number 42
	svc, m := newRoundServiceWithMocks(41)
	ctx := context.Background()

	round := drawingRound(1, 10, 20, 30)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.drawRepo.On("Create", ctx, mock.MatchedBy(func(d *entities.Draw) bool {
		return d.RoundID == 1 && d.Number == 42 && d.Position == 4
	})).Return(nil)
	m.roundRepo.On("AppendDrawnNumber", ctx, int64(1), int32(42), 3).Return(true, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := svc.DrawNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(42), result.Number)
	assert.Equal(t, 4, result.Position)
	assert.Equal(t, 4, result.Total)

	require.Len(t, m.publisher.Events, 1)
	drawn := m.publisher.Events[0].(events.NumberDrawnEvent)
	assert.Equal(t, int32(42), drawn.Number)
}

func TestDrawNext_ResamplesAlreadyDrawn(t *testing.T) {
	// first sample collides with an already drawn number, second is fresh
	svc, m := newRoundServiceWithMocks(9, 14)
	ctx := context.Background()

	round := drawingRound(1, 10)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.drawRepo.On("Create", ctx, mock.MatchedBy(func(d *entities.Draw) bool {
		return d.Number == 15
	})).Return(nil)
	m.roundRepo.On("AppendDrawnNumber", ctx, int64(1), int32(15), 1).Return(true, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := svc.DrawNext(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(15), result.Number)
}

func TestDrawNext_RejectsWrongStatus(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(sellingRound(1), nil)

	_, err := svc.DrawNext(ctx, 1)
	assert.ErrorIs(t, err, ErrRoundNotDrawing)
}

func TestDrawNext_RejectsExhaustedRound(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	drawn := make([]int32, entities.TotalDrawableNumbers)
	for i := range drawn {
		drawn[i] = int32(i + 1)
	}
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(drawingRound(1, drawn...), nil)

	_, err := svc.DrawNext(ctx, 1)
	assert.ErrorIs(t, err, ErrAllNumbersDrawn)
}

func TestDrawNext_RoundNotFound(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.roundRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	_, err := svc.DrawNext(ctx, 99)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestFinishRound_GuardRejected(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	finished := sellingRound(1)
	finished.Status = entities.RoundStatusFinished
	m.roundRepo.On("GetByID", ctx, int64(1)).Return(finished, nil)
	m.roundRepo.On("Finish", ctx, int64(1)).Return(false, nil)

	err := svc.FinishRound(ctx, 1)
	assert.ErrorIs(t, err, ErrRoundTerminal)
}

func TestCancelRound_RefundsPaidPurchases(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.roundRepo.On("GetByID", ctx, int64(1)).Return(sellingRound(1), nil)
	m.roundRepo.On("Cancel", ctx, int64(1)).Return(true, nil)
	m.purchaseRepo.On("RefundPaidByRound", ctx, int64(1), mock.Anything).Return(int64(3), nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	require.NoError(t, svc.CancelRound(ctx, 1))
	m.purchaseRepo.AssertExpectations(t)

	require.Len(t, m.publisher.Events, 1)
	status := m.publisher.Events[0].(events.RoundStatusChangedEvent)
	assert.Equal(t, entities.RoundStatusCancelled, status.Status)
}

func TestAutoFinishExhausted_FinishesOnlyFullRounds(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	full := make([]int32, entities.TotalDrawableNumbers)
	for i := range full {
		full[i] = int32(i + 1)
	}
	exhausted := drawingRound(1, full...)
	active := drawingRound(2, 10, 20)

	m.roundRepo.On("GetDrawingRounds", ctx).Return([]*entities.Round{exhausted, active}, nil)
	m.roundRepo.On("Finish", ctx, int64(1)).Return(true, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	count, err := svc.AutoFinishExhausted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	m.roundRepo.AssertNotCalled(t, "Finish", ctx, int64(2))
}

func TestDeclareWinner_HappyPath(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	card := &entities.Card{ID: 5, Code: "SB-TESTCARD", RoundID: 1, Numbers: testCardNumbers()}
	round := drawingRound(1, drawnFor(card.Numbers, 0, 1, 2, 3, 4)...)
	round.PrizePool = 20000

	m.cardRepo.On("GetByCode", ctx, "SB-TESTCARD").Return(card, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.winnerRepo.On("ExistsForRound", ctx, int64(1)).Return(false, nil)
	m.settingsRepo.On("GetActivePatterns", ctx).Return(entities.DefaultActivePatterns(), nil)
	m.cardRepo.On("GetSoldByRound", ctx, int64(1)).Return([]*entities.Card{card}, nil)
	m.winnerRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.Winner) bool {
		return w.CardID == 5 && w.Pattern == "line_horizontal" && w.PrizeAmount == 20000
	})).Return(nil)
	m.cardRepo.On("MarkWinner", ctx, int64(5)).Return(true, nil)
	m.roundRepo.On("Finish", ctx, int64(1)).Return(true, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	declared, err := svc.DeclareWinner(ctx, "SB-TESTCARD")
	require.NoError(t, err)
	assert.Equal(t, "line_horizontal", declared.Pattern)
	assert.Equal(t, int64(20000), declared.Winner.PrizeAmount)

	var winnerEvent *events.WinnerDeclaredEvent
	for _, e := range m.publisher.Events {
		if we, ok := e.(events.WinnerDeclaredEvent); ok {
			winnerEvent = &we
		}
	}
	require.NotNil(t, winnerEvent)
	assert.Equal(t, "SB-TESTCARD", winnerEvent.CardCode)
}

func TestDeclareWinner_SimultaneousWinnersSplitPrize(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	claimed := &entities.Card{ID: 5, Code: "SB-TESTCARD", RoundID: 1, Numbers: testCardNumbers()}
	rival := &entities.Card{ID: 6, Code: "SB-RIVAL234", RoundID: 1, Numbers: testCardNumbers()}
	round := drawingRound(1, drawnFor(claimed.Numbers, 0, 1, 2, 3, 4)...)
	round.PrizePool = 20001

	m.cardRepo.On("GetByCode", ctx, "SB-TESTCARD").Return(claimed, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.winnerRepo.On("ExistsForRound", ctx, int64(1)).Return(false, nil)
	m.settingsRepo.On("GetActivePatterns", ctx).Return(entities.DefaultActivePatterns(), nil)
	m.cardRepo.On("GetSoldByRound", ctx, int64(1)).Return([]*entities.Card{claimed, rival}, nil)
	// the earlier card takes the leftover centavo of the even division
	m.winnerRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.Winner) bool {
		return w.CardID == 5 && w.PrizeAmount == 10001
	})).Return(nil).Once()
	m.winnerRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.Winner) bool {
		return w.CardID == 6 && w.PrizeAmount == 10000
	})).Return(nil).Once()
	m.cardRepo.On("MarkWinner", ctx, int64(5)).Return(true, nil)
	m.cardRepo.On("MarkWinner", ctx, int64(6)).Return(true, nil)
	m.roundRepo.On("Finish", ctx, int64(1)).Return(true, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	declared, err := svc.DeclareWinner(ctx, "SB-TESTCARD")
	require.NoError(t, err)
	assert.Equal(t, int64(10001), declared.Winner.PrizeAmount)
	m.winnerRepo.AssertExpectations(t)
	m.cardRepo.AssertExpectations(t)

	winnerEvents := 0
	for _, e := range m.publisher.Events {
		if _, ok := e.(events.WinnerDeclaredEvent); ok {
			winnerEvents++
		}
	}
	assert.Equal(t, 2, winnerEvents)
}

func TestDeclareWinner_NoPatternCompleted(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	card := &entities.Card{ID: 5, Code: "SB-TESTCARD", RoundID: 1, Numbers: testCardNumbers()}
	round := drawingRound(1, drawnFor(card.Numbers, 0, 1)...)

	m.cardRepo.On("GetByCode", ctx, "SB-TESTCARD").Return(card, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.winnerRepo.On("ExistsForRound", ctx, int64(1)).Return(false, nil)
	m.settingsRepo.On("GetActivePatterns", ctx).Return(entities.DefaultActivePatterns(), nil)

	_, err := svc.DeclareWinner(ctx, "SB-TESTCARD")
	assert.ErrorIs(t, err, ErrNoWinningPattern)
	m.winnerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeclareWinner_SecondClaimRejected(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	card := &entities.Card{ID: 5, Code: "SB-TESTCARD", RoundID: 1, Numbers: testCardNumbers()}
	m.cardRepo.On("GetByCode", ctx, "SB-TESTCARD").Return(card, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(drawingRound(1), nil)
	m.winnerRepo.On("ExistsForRound", ctx, int64(1)).Return(true, nil)

	_, err := svc.DeclareWinner(ctx, "SB-TESTCARD")
	assert.ErrorIs(t, err, ErrWinnerAlreadySet)
}

func TestDeclareWinner_UnknownCard(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	m.cardRepo.On("GetByCode", ctx, "SB-MISSING2").Return(nil, nil)

	_, err := svc.DeclareWinner(ctx, "SB-MISSING2")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestDeclareWinner_RoundNotDrawing(t *testing.T) {
	svc, m := newRoundServiceWithMocks()
	ctx := context.Background()

	card := &entities.Card{ID: 5, Code: "SB-TESTCARD", RoundID: 1, Numbers: testCardNumbers()}
	m.cardRepo.On("GetByCode", ctx, "SB-TESTCARD").Return(card, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(sellingRound(1), nil)

	_, err := svc.DeclareWinner(ctx, "SB-TESTCARD")
	assert.ErrorIs(t, err, ErrRoundNotDrawing)
}

var _ interfaces.RoundService = (*RoundServiceImpl)(nil)
