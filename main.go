package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sortebem/cmd"
	"sortebem/config"
	"sortebem/database"
	"sortebem/domain/interfaces"
	"sortebem/domain/services"
	"sortebem/infrastructure"
	"sortebem/repository"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Check for winner declaration subcommand
	if len(os.Args) > 1 && os.Args[1] == "declare-winner" {
		if err := handleDeclareWinner(); err != nil {
			log.Fatal("Winner declaration error:", err)
		}
		return
	}

	// Normal engine operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleDeclareWinner() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: sortebem declare-winner card-code")
	}
	cardCode := os.Args[2]

	ctx := context.Background()
	cfg := config.Get()
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Admin commands publish nowhere; the engine's subscribers are not running
	uowFactory := repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return infrastructure.NewNATSTransactionalPublisher(infrastructure.NewNoopEventPublisher())
	})

	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	svc := services.NewRoundService(
		uow.RoundRepository(),
		uow.DrawRepository(),
		uow.CardRepository(),
		uow.WinnerRepository(),
		uow.PurchaseRepository(),
		uow.SettingsRepository(),
		uow.EventBus(),
		services.NewCryptoRandomSource(),
	)

	declared, err := svc.DeclareWinner(ctx, cardCode)
	if err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	log.Printf("Card %s won round %d with pattern %s (prize %d centavos)",
		declared.Card.Code, declared.Winner.RoundID, declared.Pattern, declared.Winner.PrizeAmount)
	return nil
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: sortebem migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
