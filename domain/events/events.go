package events

import (
	"time"

	"sortebem/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRoundCreated       EventType = "round_created"
	EventTypeRoundStatusChanged EventType = "round_status_changed"
	EventTypeNumberDrawn        EventType = "number_drawn"
	EventTypeCardsIssued        EventType = "cards_issued"
	EventTypeWinnerDeclared     EventType = "winner_declared"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RoundCreatedEvent announces a freshly created round
type RoundCreatedEvent struct {
	RoundID       int64                `json:"round_id"`
	RoundNumber   int64                `json:"round_number"`
	RoundType     entities.RoundType   `json:"round_type"`
	CardPrice     int64                `json:"card_price"`
	StartsAt      time.Time            `json:"starts_at"`
	SellingEndsAt time.Time            `json:"selling_ends_at"`
	EndsAt        time.Time            `json:"ends_at"`
	Status        entities.RoundStatus `json:"status"`
}

func (e RoundCreatedEvent) Type() EventType {
	return EventTypeRoundCreated
}

// RoundStatusChangedEvent announces a lifecycle transition, including the
// selling-window close where Status stays "selling" but IsSelling drops.
type RoundStatusChangedEvent struct {
	RoundID     int64                `json:"round_id"`
	RoundNumber int64                `json:"round_number"`
	Status      entities.RoundStatus `json:"status"`
	IsSelling   bool                 `json:"is_selling"`
	Timestamp   time.Time            `json:"timestamp"`
}

func (e RoundStatusChangedEvent) Type() EventType {
	return EventTypeRoundStatusChanged
}

// NumberDrawnEvent announces one draw step
type NumberDrawnEvent struct {
	RoundID  int64 `json:"round_id"`
	Number   int32 `json:"number"`
	Position int   `json:"position"`
	Total    int   `json:"total"`
}

func (e NumberDrawnEvent) Type() EventType {
	return EventTypeNumberDrawn
}

// CardsIssuedEvent announces cards generated for a settled purchase
type CardsIssuedEvent struct {
	RoundID    int64    `json:"round_id"`
	PurchaseID int64    `json:"purchase_id"`
	CardCodes  []string `json:"card_codes"`
}

func (e CardsIssuedEvent) Type() EventType {
	return EventTypeCardsIssued
}

// WinnerDeclaredEvent announces a card that completed a pattern
type WinnerDeclaredEvent struct {
	RoundID     int64  `json:"round_id"`
	CardID      int64  `json:"card_id"`
	CardCode    string `json:"card_code"`
	Pattern     string `json:"pattern"`
	PrizeAmount int64  `json:"prize_amount"`
}

func (e WinnerDeclaredEvent) Type() EventType {
	return EventTypeWinnerDeclared
}
