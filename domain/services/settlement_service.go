package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"sortebem/domain/entities"
	"sortebem/domain/events"
	"sortebem/domain/interfaces"
)

// SettlementSplit is a purchase amount divided into its destination buckets.
// All values are centavos and always sum to the original amount.
type SettlementSplit struct {
	Prize      int64
	Charity    int64
	Platform   int64
	Commission int64
}

// SplitPurchaseAmount divides a purchase total per the configured
// percentages. Prize, charity and commission are floored to whole centavos;
// the platform absorbs the rounding remainder so nothing is lost.
func SplitPurchaseAmount(total int64, cfg entities.SplitConfig) SettlementSplit {
	amount := decimal.NewFromInt(total)
	hundred := decimal.NewFromInt(100)

	share := func(pct float64) int64 {
		return amount.Mul(decimal.NewFromFloat(pct)).Div(hundred).Floor().IntPart()
	}

	split := SettlementSplit{
		Prize:      share(cfg.PrizePercentage),
		Charity:    share(cfg.CharityPercentage),
		Commission: share(cfg.CommissionPercentage),
	}
	split.Platform = total - split.Prize - split.Charity - split.Commission
	return split
}

// SettlementServiceImpl settles paid purchases: it stamps the idempotency
// guard, generates the purchased cards, applies the financial split to the
// round accumulators and credits the partners. Buyer notification is left
// to the caller as a pending CardDelivery so it never runs inside the
// settling transaction.
type SettlementServiceImpl struct {
	purchaseRepo      interfaces.PurchaseRepository
	roundRepo         interfaces.RoundRepository
	cardRepo          interfaces.CardRepository
	establishmentRepo interfaces.EstablishmentRepository
	managerRepo       interfaces.ManagerRepository
	charityRepo       interfaces.CharityRepository
	settingsRepo      interfaces.SettingsRepository
	cardGenerator     interfaces.CardGenerator
	publisher         interfaces.EventPublisher
}

// NewSettlementService creates the settlement service
func NewSettlementService(
	purchaseRepo interfaces.PurchaseRepository,
	roundRepo interfaces.RoundRepository,
	cardRepo interfaces.CardRepository,
	establishmentRepo interfaces.EstablishmentRepository,
	managerRepo interfaces.ManagerRepository,
	charityRepo interfaces.CharityRepository,
	settingsRepo interfaces.SettingsRepository,
	cardGenerator interfaces.CardGenerator,
	publisher interfaces.EventPublisher,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		purchaseRepo:      purchaseRepo,
		roundRepo:         roundRepo,
		cardRepo:          cardRepo,
		establishmentRepo: establishmentRepo,
		managerRepo:       managerRepo,
		charityRepo:       charityRepo,
		settingsRepo:      settingsRepo,
		cardGenerator:     cardGenerator,
		publisher:         publisher,
	}
}

// SettlePurchase settles one paid purchase. Returns nil without error when
// the purchase was already settled, including when a concurrent worker won
// the settled_at stamp.
func (s *SettlementServiceImpl) SettlePurchase(ctx context.Context, purchaseID int64) (*interfaces.CardDelivery, error) {
	purchase, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return nil, ErrPurchaseNotFound
	}
	if purchase.IsSettled() {
		return nil, nil
	}
	if purchase.PaymentStatus != entities.PaymentStatusPaid {
		return nil, ErrPurchaseNotPaid
	}

	stamped, err := s.purchaseRepo.MarkSettled(ctx, purchaseID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to stamp settlement: %w", err)
	}
	if !stamped {
		return nil, nil
	}

	round, err := s.roundRepo.GetByIDForUpdate(ctx, purchase.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}

	cards, err := s.cardGenerator.GenerateCards(ctx, round.ID, &purchase.ID, purchase.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate cards: %w", err)
	}

	// Cards bound to the purchase before settlement are flipped sold too
	if err := s.cardRepo.MarkSold(ctx, purchase.ID); err != nil {
		return nil, fmt.Errorf("failed to mark cards sold: %w", err)
	}

	splitCfg, err := s.settingsRepo.GetSplitConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load split config: %w", err)
	}
	split := SplitPurchaseAmount(purchase.TotalAmount, splitCfg)

	if err := s.roundRepo.ApplySettlement(ctx, round.ID, purchase.Quantity,
		purchase.TotalAmount, split.Prize, split.Charity, split.Platform, split.Commission); err != nil {
		return nil, fmt.Errorf("failed to apply settlement to round: %w", err)
	}

	if err := s.creditPartners(ctx, round, split, 1); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"purchase": purchase.ID,
		"round":    round.Number,
		"cards":    len(cards),
		"amount":   purchase.TotalAmount,
	}).Info("Purchase settled")

	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code
	}

	if err := s.publisher.Publish(events.CardsIssuedEvent{
		RoundID:    round.ID,
		PurchaseID: purchase.ID,
		CardCodes:  codes,
	}); err != nil {
		log.WithError(err).Error("Failed to publish cards issued event")
	}

	delivery := &interfaces.CardDelivery{CardCodes: codes, Round: round}
	if purchase.CustomerWhatsApp != nil {
		delivery.Destination = *purchase.CustomerWhatsApp
	}
	return delivery, nil
}

// RefundPurchase reverses a paid purchase: it releases the cards back to the
// pool and, when the purchase had already been settled, backs its figures
// out of the round accumulators and partner balances.
func (s *SettlementServiceImpl) RefundPurchase(ctx context.Context, purchaseID int64) error {
	purchase, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return ErrPurchaseNotFound
	}

	wasSettled := purchase.IsSettled()

	applied, err := s.purchaseRepo.MarkRefunded(ctx, purchaseID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark purchase refunded: %w", err)
	}
	if !applied {
		return ErrPurchaseNotPaid
	}

	if err := s.cardRepo.ReleaseByPurchase(ctx, purchaseID); err != nil {
		return fmt.Errorf("failed to release cards: %w", err)
	}

	if wasSettled {
		round, err := s.roundRepo.GetByIDForUpdate(ctx, purchase.RoundID)
		if err != nil {
			return fmt.Errorf("failed to get round: %w", err)
		}
		if round == nil {
			return ErrRoundNotFound
		}

		splitCfg, err := s.settingsRepo.GetSplitConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load split config: %w", err)
		}
		split := SplitPurchaseAmount(purchase.TotalAmount, splitCfg)

		if err := s.roundRepo.ApplySettlement(ctx, round.ID, -purchase.Quantity,
			-purchase.TotalAmount, -split.Prize, -split.Charity, -split.Platform, -split.Commission); err != nil {
			return fmt.Errorf("failed to reverse settlement on round: %w", err)
		}

		if err := s.creditPartners(ctx, round, split, -1); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"purchase": purchase.ID,
		"settled":  wasSettled,
	}).Info("Purchase refunded")
	return nil
}

// creditPartners applies the partner-facing money movements of one
// settlement. The commission bucket is split further between establishment
// and manager by each partner's own rate (a two-stage split: the rate is a
// share of the commission pool, not of the sale); the charity receives the
// charity bucket. direction is 1 to credit, -1 to reverse.
func (s *SettlementServiceImpl) creditPartners(ctx context.Context, round *entities.Round, split SettlementSplit, direction int64) error {
	if round.EstablishmentID != nil {
		establishment, err := s.establishmentRepo.GetByID(ctx, *round.EstablishmentID)
		if err != nil {
			return fmt.Errorf("failed to get establishment: %w", err)
		}
		if establishment != nil {
			amount := commissionShare(split.Commission, establishment.CommissionRate)
			if err := s.establishmentRepo.AddBalance(ctx, establishment.ID, direction*amount); err != nil {
				return fmt.Errorf("failed to credit establishment: %w", err)
			}
		}
	}

	if round.ManagerID != nil {
		manager, err := s.managerRepo.GetByID(ctx, *round.ManagerID)
		if err != nil {
			return fmt.Errorf("failed to get manager: %w", err)
		}
		if manager != nil {
			amount := commissionShare(split.Commission, manager.CommissionRate)
			if err := s.managerRepo.AddBalance(ctx, manager.ID, direction*amount); err != nil {
				return fmt.Errorf("failed to credit manager: %w", err)
			}
		}
	}

	if round.CharityID != nil {
		if err := s.charityRepo.AddReceived(ctx, *round.CharityID, direction*split.Charity); err != nil {
			return fmt.Errorf("failed to credit charity: %w", err)
		}
	}

	return nil
}

// commissionShare computes a partner's cut of the commission pool at their
// percentage rate, floored to whole centavos.
func commissionShare(commissionPool int64, rate float64) int64 {
	return decimal.NewFromInt(commissionPool).
		Mul(decimal.NewFromFloat(rate)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
