package application

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"sortebem/domain/interfaces"
	"sortebem/domain/services"
)

// stalePurchaseAge is how long cancelled/expired purchases are kept before
// the cleanup job removes them.
const stalePurchaseAge = 7 * 24 * time.Hour

// settlementBatchSize caps how many purchases one settlement sweep handles
const settlementBatchSize = 100

// Scheduler runs the unattended game loop: round creation and transitions,
// automatic draws, settlement sweeps, purchase expiry and cleanup. Every
// job runs inside its own unit of work so a failing job never leaves
// partial state behind.
type Scheduler struct {
	uowFactory UnitOfWorkFactory
	random     interfaces.RandomSource
	notifier   interfaces.CardNotifier
	cron       *cron.Cron
}

// NewScheduler creates the scheduler. notifier may be nil when card
// delivery is disabled.
func NewScheduler(uowFactory UnitOfWorkFactory, random interfaces.RandomSource, notifier interfaces.CardNotifier) *Scheduler {
	return &Scheduler{
		uowFactory: uowFactory,
		random:     random,
		notifier:   notifier,
		cron:       cron.New(cron.WithSeconds()),
	}
}

// Start registers all jobs and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{"0 * * * * *", "round sweep", s.runRoundSweep},
		{"*/10 * * * * *", "auto draw", s.runAutoDraw},
		{"*/30 * * * * *", "settlement sweep", s.runSettlementSweep},
		{"30 * * * * *", "purchase expiry", s.runPurchaseExpiry},
		{"0 0 * * * *", "cleanup", s.runCleanup},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := job.run(ctx); err != nil {
				log.WithError(err).WithField("job", job.name).Error("Scheduled job failed")
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info("Scheduler started")
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Info("Scheduler stopped")
}

// withUnitOfWork runs fn inside a transaction, rolling back on error
func (s *Scheduler) withUnitOfWork(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

// roundService builds a round service bound to the unit of work's repositories
func (s *Scheduler) roundService(uow UnitOfWork) interfaces.RoundService {
	return services.NewRoundService(
		uow.RoundRepository(),
		uow.DrawRepository(),
		uow.CardRepository(),
		uow.WinnerRepository(),
		uow.PurchaseRepository(),
		uow.SettingsRepository(),
		uow.EventBus(),
		s.random,
	)
}

// settlementService builds a settlement service bound to the unit of work
func (s *Scheduler) settlementService(uow UnitOfWork) interfaces.SettlementService {
	generator := services.NewCardGeneratorService(uow.CardRepository(), s.random)
	return services.NewSettlementService(
		uow.PurchaseRepository(),
		uow.RoundRepository(),
		uow.CardRepository(),
		uow.EstablishmentRepository(),
		uow.ManagerRepository(),
		uow.CharityRepository(),
		uow.SettingsRepository(),
		generator,
		uow.EventBus(),
	)
}

// runRoundSweep creates missing rounds and applies due timed transitions
func (s *Scheduler) runRoundSweep(ctx context.Context) error {
	return s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		svc := s.roundService(uow)
		if err := svc.EnsureRounds(ctx); err != nil {
			return err
		}
		return svc.AdvanceRounds(ctx)
	})
}

// runAutoDraw draws the next number for every drawing round and finishes
// rounds that exhausted the number space. Each round gets its own
// transaction so one failing round does not stall the others.
func (s *Scheduler) runAutoDraw(ctx context.Context) error {
	var roundIDs []int64
	err := s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		rounds, err := uow.RoundRepository().GetDrawingRounds(ctx)
		if err != nil {
			return err
		}
		for _, round := range rounds {
			if !round.AllNumbersDrawn() {
				roundIDs = append(roundIDs, round.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, roundID := range roundIDs {
		err := s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
			_, err := s.roundService(uow).DrawNext(ctx, roundID)
			if errors.Is(err, services.ErrRoundNotDrawing) || errors.Is(err, services.ErrAllNumbersDrawn) {
				return nil
			}
			return err
		})
		if err != nil {
			log.WithError(err).WithField("round_id", roundID).Error("Failed to draw number")
		}
	}

	return s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		_, err := s.roundService(uow).AutoFinishExhausted(ctx)
		return err
	})
}

// runSettlementSweep settles paid purchases that have not been settled yet
func (s *Scheduler) runSettlementSweep(ctx context.Context) error {
	var purchaseIDs []int64
	err := s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		purchases, err := uow.PurchaseRepository().GetUnsettledPaid(ctx, settlementBatchSize)
		if err != nil {
			return err
		}
		for _, p := range purchases {
			purchaseIDs = append(purchaseIDs, p.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, purchaseID := range purchaseIDs {
		var delivery *interfaces.CardDelivery
		err := s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
			var err error
			delivery, err = s.settlementService(uow).SettlePurchase(ctx, purchaseID)
			return err
		})
		if err != nil {
			log.WithError(err).WithField("purchase_id", purchaseID).Error("Failed to settle purchase")
			continue
		}
		s.deliverCards(ctx, delivery)
	}
	return nil
}

// deliverCards sends the buyer notification for a committed settlement.
// Runs strictly after the settling transaction; failures are logged,
// never propagated.
func (s *Scheduler) deliverCards(ctx context.Context, delivery *interfaces.CardDelivery) {
	if delivery == nil || s.notifier == nil || delivery.Destination == "" {
		return
	}
	if err := s.notifier.SendCards(ctx, delivery.Destination, delivery.CardCodes, delivery.Round); err != nil {
		log.WithError(err).WithField("destination", delivery.Destination).Warn("Failed to deliver cards")
	}
}

// runPurchaseExpiry expires pending purchases past their payment window
func (s *Scheduler) runPurchaseExpiry(ctx context.Context) error {
	return s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		expired, err := uow.PurchaseRepository().ExpirePending(ctx, time.Now())
		if err != nil {
			return err
		}
		if expired > 0 {
			log.WithField("count", expired).Info("Expired pending purchases")
		}
		return nil
	})
}

// runCleanup removes stale cancelled/expired purchases
func (s *Scheduler) runCleanup(ctx context.Context) error {
	return s.withUnitOfWork(ctx, func(uow UnitOfWork) error {
		deleted, err := uow.PurchaseRepository().DeleteStale(ctx, time.Now().Add(-stalePurchaseAge))
		if err != nil {
			return err
		}
		if deleted > 0 {
			log.WithField("count", deleted).Info("Cleaned up stale purchases")
		}
		return nil
	})
}
