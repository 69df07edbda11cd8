package testhelpers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sortebem/domain/entities"
	"sortebem/domain/events"
	"sortebem/domain/interfaces"
)

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) Create(ctx context.Context, round *entities.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) GetByID(ctx context.Context, id int64) (*entities.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetNextOpen(ctx context.Context, roundType entities.RoundType) (*entities.Round, error) {
	args := m.Called(ctx, roundType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) GetDrawingRounds(ctx context.Context) ([]*entities.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) StartScheduled(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) CloseDueSelling(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) StartDueDrawing(ctx context.Context, now time.Time) ([]*entities.Round, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *MockRoundRepository) CloseSelling(ctx context.Context, roundID int64) (bool, error) {
	args := m.Called(ctx, roundID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) StartDrawing(ctx context.Context, roundID int64) (bool, error) {
	args := m.Called(ctx, roundID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) Finish(ctx context.Context, roundID int64) (bool, error) {
	args := m.Called(ctx, roundID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) Cancel(ctx context.Context, roundID int64) (bool, error) {
	args := m.Called(ctx, roundID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) AppendDrawnNumber(ctx context.Context, roundID int64, number int32, expectedCount int) (bool, error) {
	args := m.Called(ctx, roundID, number, expectedCount)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) ApplySettlement(ctx context.Context, roundID int64, cardsSold int, totalSale, prize, charity, platform, commission int64) error {
	args := m.Called(ctx, roundID, cardsSold, totalSale, prize, charity, platform, commission)
	return args.Error(0)
}

// MockCardRepository is a mock implementation of CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Create(ctx context.Context, card *entities.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) GetByCode(ctx context.Context, code string) (*entities.Card, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *MockCardRepository) GetByPurchase(ctx context.Context, purchaseID int64) ([]*entities.Card, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Card), args.Error(1)
}

func (m *MockCardRepository) GetSoldByRound(ctx context.Context, roundID int64) ([]*entities.Card, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Card), args.Error(1)
}

func (m *MockCardRepository) MarkSold(ctx context.Context, purchaseID int64) error {
	args := m.Called(ctx, purchaseID)
	return args.Error(0)
}

func (m *MockCardRepository) ReleaseByPurchase(ctx context.Context, purchaseID int64) error {
	args := m.Called(ctx, purchaseID)
	return args.Error(0)
}

func (m *MockCardRepository) MarkWinner(ctx context.Context, cardID int64) (bool, error) {
	args := m.Called(ctx, cardID)
	return args.Bool(0), args.Error(1)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Create(ctx context.Context, draw *entities.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockDrawRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.Draw, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Draw), args.Error(1)
}

func (m *MockDrawRepository) CountByRound(ctx context.Context, roundID int64) (int, error) {
	args := m.Called(ctx, roundID)
	return args.Int(0), args.Error(1)
}

// MockWinnerRepository is a mock implementation of WinnerRepository
type MockWinnerRepository struct {
	mock.Mock
}

func (m *MockWinnerRepository) Create(ctx context.Context, winner *entities.Winner) error {
	args := m.Called(ctx, winner)
	return args.Error(0)
}

func (m *MockWinnerRepository) GetByRound(ctx context.Context, roundID int64) ([]*entities.Winner, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Winner), args.Error(1)
}

func (m *MockWinnerRepository) ExistsForRound(ctx context.Context, roundID int64) (bool, error) {
	args := m.Called(ctx, roundID)
	return args.Bool(0), args.Error(1)
}

// MockPurchaseRepository is a mock implementation of PurchaseRepository
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *entities.Purchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetByID(ctx context.Context, id int64) (*entities.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time) (bool, error) {
	args := m.Called(ctx, id, settledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseRepository) MarkRefunded(ctx context.Context, id int64, refundedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, refundedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseRepository) GetUnsettledPaid(ctx context.Context, limit int) ([]*entities.Purchase, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) RefundPaidByRound(ctx context.Context, roundID int64, refundedAt time.Time) (int64, error) {
	args := m.Called(ctx, roundID, refundedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string, out any) (bool, error) {
	args := m.Called(ctx, key, out)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettingsRepository) Set(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSettingsRepository) GetRoundConfig(ctx context.Context) (entities.RoundConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.RoundConfig), args.Error(1)
}

func (m *MockSettingsRepository) GetSplitConfig(ctx context.Context) (entities.SplitConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.SplitConfig), args.Error(1)
}

func (m *MockSettingsRepository) GetActivePatterns(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockEstablishmentRepository is a mock implementation of EstablishmentRepository
type MockEstablishmentRepository struct {
	mock.Mock
}

func (m *MockEstablishmentRepository) GetByID(ctx context.Context, id int64) (*entities.Establishment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Establishment), args.Error(1)
}

func (m *MockEstablishmentRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockManagerRepository is a mock implementation of ManagerRepository
type MockManagerRepository struct {
	mock.Mock
}

func (m *MockManagerRepository) GetByID(ctx context.Context, id int64) (*entities.Manager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Manager), args.Error(1)
}

func (m *MockManagerRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockCharityRepository is a mock implementation of CharityRepository
type MockCharityRepository struct {
	mock.Mock
}

func (m *MockCharityRepository) GetByID(ctx context.Context, id int64) (*entities.Charity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Charity), args.Error(1)
}

func (m *MockCharityRepository) AddReceived(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher that records
// published events for assertions
type MockEventPublisher struct {
	mock.Mock
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	if args.Error(0) == nil {
		m.Events = append(m.Events, event)
	}
	return args.Error(0)
}

// MockCardNotifier is a mock implementation of CardNotifier
type MockCardNotifier struct {
	mock.Mock
}

func (m *MockCardNotifier) SendCards(ctx context.Context, destination string, cardCodes []string, round *entities.Round) error {
	args := m.Called(ctx, destination, cardCodes, round)
	return args.Error(0)
}

// MockCardGenerator is a mock implementation of CardGenerator
type MockCardGenerator struct {
	mock.Mock
}

func (m *MockCardGenerator) GenerateCard(ctx context.Context, roundID int64, purchaseID *int64) (*entities.Card, error) {
	args := m.Called(ctx, roundID, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Card), args.Error(1)
}

func (m *MockCardGenerator) GenerateCards(ctx context.Context, roundID int64, purchaseID *int64, count int) ([]*entities.Card, error) {
	args := m.Called(ctx, roundID, purchaseID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Card), args.Error(1)
}

// SequenceRandomSource is a deterministic RandomSource that replays a fixed
// sequence of values, wrapping when exhausted
type SequenceRandomSource struct {
	Values []int
	next   int
}

func (s *SequenceRandomSource) Intn(n int) (int, error) {
	if len(s.Values) == 0 {
		return 0, nil
	}
	v := s.Values[s.next%len(s.Values)] % n
	s.next++
	return v, nil
}

var _ interfaces.RandomSource = (*SequenceRandomSource)(nil)
