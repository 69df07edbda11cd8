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

type settlementMocks struct {
	purchaseRepo      *testhelpers.MockPurchaseRepository
	roundRepo         *testhelpers.MockRoundRepository
	cardRepo          *testhelpers.MockCardRepository
	establishmentRepo *testhelpers.MockEstablishmentRepository
	managerRepo       *testhelpers.MockManagerRepository
	charityRepo       *testhelpers.MockCharityRepository
	settingsRepo      *testhelpers.MockSettingsRepository
	cardGenerator     *testhelpers.MockCardGenerator
	publisher         *testhelpers.MockEventPublisher
}

func newSettlementServiceWithMocks() (*SettlementServiceImpl, *settlementMocks) {
	m := &settlementMocks{
		purchaseRepo:      new(testhelpers.MockPurchaseRepository),
		roundRepo:         new(testhelpers.MockRoundRepository),
		cardRepo:          new(testhelpers.MockCardRepository),
		establishmentRepo: new(testhelpers.MockEstablishmentRepository),
		managerRepo:       new(testhelpers.MockManagerRepository),
		charityRepo:       new(testhelpers.MockCharityRepository),
		settingsRepo:      new(testhelpers.MockSettingsRepository),
		cardGenerator:     new(testhelpers.MockCardGenerator),
		publisher:         new(testhelpers.MockEventPublisher),
	}
	svc := NewSettlementService(m.purchaseRepo, m.roundRepo, m.cardRepo,
		m.establishmentRepo, m.managerRepo, m.charityRepo, m.settingsRepo,
		m.cardGenerator, m.publisher)
	return svc, m
}

func paidPurchase(id int64) *entities.Purchase {
	paidAt := time.Now()
	return &entities.Purchase{
		ID:            id,
		RoundID:       1,
		Quantity:      2,
		TotalAmount:   1000,
		PaymentStatus: entities.PaymentStatusPaid,
		CustomerName:  "Maria",
		PaidAt:        &paidAt,
	}
}

func generatedCards(purchaseID int64, codes ...string) []*entities.Card {
	cards := make([]*entities.Card, len(codes))
	for i, code := range codes {
		cards[i] = &entities.Card{ID: int64(i + 1), Code: code, RoundID: 1, PurchaseID: &purchaseID, Status: entities.CardStatusSold}
	}
	return cards
}

func TestSplitPurchaseAmount_DefaultSplit(t *testing.T) {
	split := SplitPurchaseAmount(1000, entities.DefaultSplitConfig())

	assert.Equal(t, int64(400), split.Prize)
	assert.Equal(t, int64(200), split.Charity)
	assert.Equal(t, int64(300), split.Platform)
	assert.Equal(t, int64(100), split.Commission)
}

func TestSplitPurchaseAmount_PlatformAbsorbsRounding(t *testing.T) {
	// 333 centavos: 40% = 133.2, 20% = 66.6, 10% = 33.3
	split := SplitPurchaseAmount(333, entities.DefaultSplitConfig())

	assert.Equal(t, int64(133), split.Prize)
	assert.Equal(t, int64(66), split.Charity)
	assert.Equal(t, int64(33), split.Commission)
	assert.Equal(t, int64(333), split.Prize+split.Charity+split.Platform+split.Commission)
}

func TestSettlePurchase_AppliesSplitAndIssuesCards(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	purchase := paidPurchase(10)
	whats := "+5511999990000"
	purchase.CustomerWhatsApp = &whats
	round := sellingRound(1)

	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(purchase, nil)
	m.purchaseRepo.On("MarkSettled", ctx, int64(10), mock.Anything).Return(true, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.cardGenerator.On("GenerateCards", ctx, int64(1), mock.Anything, 2).
		Return(generatedCards(10, "SB-AAAAAAAA", "SB-BBBBBBBB"), nil)
	m.cardRepo.On("MarkSold", ctx, int64(10)).Return(nil)
	m.settingsRepo.On("GetSplitConfig", ctx).Return(entities.DefaultSplitConfig(), nil)
	m.roundRepo.On("ApplySettlement", ctx, int64(1), 2,
		int64(1000), int64(400), int64(200), int64(300), int64(100)).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	delivery, err := svc.SettlePurchase(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, whats, delivery.Destination)
	assert.Equal(t, []string{"SB-AAAAAAAA", "SB-BBBBBBBB"}, delivery.CardCodes)
	assert.Equal(t, round, delivery.Round)

	m.roundRepo.AssertExpectations(t)
	m.cardRepo.AssertCalled(t, "MarkSold", ctx, int64(10))

	require.Len(t, m.publisher.Events, 1)
	issued := m.publisher.Events[0].(events.CardsIssuedEvent)
	assert.Equal(t, []string{"SB-AAAAAAAA", "SB-BBBBBBBB"}, issued.CardCodes)
}

func TestSettlePurchase_CreditsPartners(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	purchase := paidPurchase(10)
	round := sellingRound(1)
	estID, mgrID, charityID := int64(3), int64(4), int64(5)
	round.EstablishmentID = &estID
	round.ManagerID = &mgrID
	round.CharityID = &charityID

	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(purchase, nil)
	m.purchaseRepo.On("MarkSettled", ctx, int64(10), mock.Anything).Return(true, nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
	m.cardGenerator.On("GenerateCards", ctx, int64(1), mock.Anything, 2).
		Return(generatedCards(10, "SB-AAAAAAAA", "SB-BBBBBBBB"), nil)
	m.cardRepo.On("MarkSold", ctx, int64(10)).Return(nil)
	m.settingsRepo.On("GetSplitConfig", ctx).Return(entities.DefaultSplitConfig(), nil)
	m.roundRepo.On("ApplySettlement", ctx, int64(1), 2,
		int64(1000), int64(400), int64(200), int64(300), int64(100)).Return(nil)
	// Partner rates carve up the 100-centavo commission pool, not the sale
	m.establishmentRepo.On("GetByID", ctx, estID).
		Return(&entities.Establishment{ID: estID, CommissionRate: 60}, nil)
	m.establishmentRepo.On("AddBalance", ctx, estID, int64(60)).Return(nil)
	m.managerRepo.On("GetByID", ctx, mgrID).
		Return(&entities.Manager{ID: mgrID, CommissionRate: 32.5}, nil)
	m.managerRepo.On("AddBalance", ctx, mgrID, int64(32)).Return(nil)
	m.charityRepo.On("AddReceived", ctx, charityID, int64(200)).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	delivery, err := svc.SettlePurchase(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, delivery)

	m.establishmentRepo.AssertExpectations(t)
	m.managerRepo.AssertExpectations(t)
	m.charityRepo.AssertExpectations(t)
}

func TestSettlePurchase_AlreadySettledIsNoOp(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	purchase := paidPurchase(10)
	settledAt := time.Now()
	purchase.SettledAt = &settledAt

	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(purchase, nil)

	delivery, err := svc.SettlePurchase(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, delivery)
	m.roundRepo.AssertNotCalled(t, "ApplySettlement",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlePurchase_ConcurrentStampLoserBacksOff(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(paidPurchase(10), nil)
	m.purchaseRepo.On("MarkSettled", ctx, int64(10), mock.Anything).Return(false, nil)

	delivery, err := svc.SettlePurchase(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, delivery)
	m.cardGenerator.AssertNotCalled(t, "GenerateCards",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlePurchase_RejectsUnpaid(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	pending := paidPurchase(10)
	pending.PaymentStatus = entities.PaymentStatusPending
	pending.PaidAt = nil
	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(pending, nil)

	_, err := svc.SettlePurchase(ctx, 10)
	assert.ErrorIs(t, err, ErrPurchaseNotPaid)
}

func TestSettlePurchase_NotFound(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	m.purchaseRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	_, err := svc.SettlePurchase(ctx, 99)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestRefundPurchase_ReleasesCards(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(paidPurchase(10), nil)
	m.purchaseRepo.On("MarkRefunded", ctx, int64(10), mock.Anything).Return(true, nil)
	m.cardRepo.On("ReleaseByPurchase", ctx, int64(10)).Return(nil)

	require.NoError(t, svc.RefundPurchase(ctx, 10))
	m.cardRepo.AssertExpectations(t)
	m.roundRepo.AssertNotCalled(t, "ApplySettlement",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundPurchase_ReversesSettledFigures(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	purchase := paidPurchase(10)
	settledAt := time.Now()
	purchase.SettledAt = &settledAt

	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(purchase, nil)
	m.purchaseRepo.On("MarkRefunded", ctx, int64(10), mock.Anything).Return(true, nil)
	m.cardRepo.On("ReleaseByPurchase", ctx, int64(10)).Return(nil)
	m.roundRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(sellingRound(1), nil)
	m.settingsRepo.On("GetSplitConfig", ctx).Return(entities.DefaultSplitConfig(), nil)
	m.roundRepo.On("ApplySettlement", ctx, int64(1), -2,
		int64(-1000), int64(-400), int64(-200), int64(-300), int64(-100)).Return(nil)

	require.NoError(t, svc.RefundPurchase(ctx, 10))
	m.roundRepo.AssertExpectations(t)
}

func TestRefundPurchase_GuardRejected(t *testing.T) {
	svc, m := newSettlementServiceWithMocks()
	ctx := context.Background()

	refunded := paidPurchase(10)
	refunded.PaymentStatus = entities.PaymentStatusRefunded
	m.purchaseRepo.On("GetByID", ctx, int64(10)).Return(refunded, nil)
	m.purchaseRepo.On("MarkRefunded", ctx, int64(10), mock.Anything).Return(false, nil)

	err := svc.RefundPurchase(ctx, 10)
	assert.ErrorIs(t, err, ErrPurchaseNotPaid)
}

var _ interfaces.SettlementService = (*SettlementServiceImpl)(nil)
var _ interfaces.CardGenerator = (*CardGeneratorService)(nil)
