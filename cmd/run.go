package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"sortebem/application"
	"sortebem/config"
	"sortebem/database"
	"sortebem/domain/interfaces"
	"sortebem/domain/services"
	"sortebem/infrastructure"
	"sortebem/repository"
)

// Run initializes and starts the game engine
func Run(ctx context.Context) error {
	log.Println("Starting sortebem engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS connection and event publisher
	log.Printf("Connecting to NATS at %s...", cfg.NATSServers)
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	subjectMapper := infrastructure.NewEventSubjectMapper()
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := eventPublisher.EnsureGameEventStream(); err != nil {
		return fmt.Errorf("failed to ensure game event stream: %w", err)
	}
	log.Println("NATS connection established successfully")

	// Initialize unit of work factory with transactional event publishing
	uowFactory := repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return infrastructure.NewNATSTransactionalPublisher(eventPublisher)
	})

	// Card delivery is optional; without a gateway the engine still runs
	var notifier interfaces.CardNotifier
	if cfg.WhatsAppEnabled() {
		notifier = infrastructure.NewWhatsAppNotifier(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey)
		log.Println("WhatsApp card delivery enabled")
	} else {
		log.Println("WhatsApp card delivery disabled (WHATSAPP_API_URL not set)")
	}

	// Initialize and start the scheduler
	scheduler := application.NewScheduler(uowFactory, services.NewCryptoRandomSource(), notifier)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Wait for context cancellation
	log.Printf("Engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down engine...")
	scheduler.Stop()

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
