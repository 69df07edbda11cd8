package infrastructure

import (
	"fmt"

	"sortebem/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeRoundCreated:
		return "rounds.created"
	case events.EventTypeRoundStatusChanged:
		return "rounds.status_changed"
	case events.EventTypeNumberDrawn:
		return "rounds.numbers_drawn"
	case events.EventTypeCardsIssued:
		return "cards.issued"
	case events.EventTypeWinnerDeclared:
		return "winners.declared"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "rounds.created":
		return events.EventTypeRoundCreated
	case "rounds.status_changed":
		return events.EventTypeRoundStatusChanged
	case "rounds.numbers_drawn":
		return events.EventTypeNumberDrawn
	case "cards.issued":
		return events.EventTypeCardsIssued
	case "winners.declared":
		return events.EventTypeWinnerDeclared
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"rounds.created",
		"rounds.status_changed",
		"rounds.numbers_drawn",
		"cards.issued",
		"winners.declared",
	}
}
