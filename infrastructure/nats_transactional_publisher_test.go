package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sortebem/domain/entities"
	"sortebem/domain/events"
)

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *recordingPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

func TestNATSTransactionalPublisher_BuffersUntilFlush(t *testing.T) {
	mockPublisher := &recordingPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	testEvent := events.NumberDrawnEvent{
		RoundID:  1,
		Number:   42,
		Position: 5,
		Total:    5,
	}

	err := transPublisher.Publish(testEvent)
	require.NoError(t, err)

	// Nothing reaches the bus before flush
	assert.Len(t, mockPublisher.PublishedEvents, 0)

	err = transPublisher.Flush(context.Background())
	require.NoError(t, err)

	require.Len(t, mockPublisher.PublishedEvents, 1)
	assert.Equal(t, testEvent, mockPublisher.PublishedEvents[0])
}

func TestNATSTransactionalPublisher_FlushPreservesOrder(t *testing.T) {
	mockPublisher := &recordingPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	statusEvent := events.RoundStatusChangedEvent{
		RoundID: 1,
		Status:  entities.RoundStatusDrawing,
	}
	drawnEvent := events.NumberDrawnEvent{RoundID: 1, Number: 7, Position: 1, Total: 1}

	require.NoError(t, transPublisher.Publish(statusEvent))
	require.NoError(t, transPublisher.Publish(drawnEvent))
	require.NoError(t, transPublisher.Flush(context.Background()))

	require.Len(t, mockPublisher.PublishedEvents, 2)
	assert.Equal(t, statusEvent, mockPublisher.PublishedEvents[0])
	assert.Equal(t, drawnEvent, mockPublisher.PublishedEvents[1])
}

func TestNATSTransactionalPublisher_Discard(t *testing.T) {
	mockPublisher := &recordingPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	err := transPublisher.Publish(events.NumberDrawnEvent{RoundID: 1, Number: 13})
	require.NoError(t, err)

	transPublisher.Discard()

	// A later flush publishes nothing
	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 0)
}

func TestNATSTransactionalPublisher_FlushContinuesOnError(t *testing.T) {
	mockPublisher := &recordingPublisher{PublishError: errors.New("bus down")}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.NumberDrawnEvent{RoundID: 1, Number: 1}))
	require.NoError(t, transPublisher.Publish(events.NumberDrawnEvent{RoundID: 1, Number: 2}))

	// Flush swallows per-event errors and clears the buffer
	require.NoError(t, transPublisher.Flush(context.Background()))

	mockPublisher.PublishError = nil
	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 0)
}
