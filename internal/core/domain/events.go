package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event job states
const (
	EventPending    = "PENDING"
	EventProcessing = "PROCESSING"
	EventCompleted  = "COMPLETED"
	EventFailed     = "FAILED"
)

// Event is a notification recorded in the same atomic scope as the change it describes.
type Event struct {
	ID      uuid.UUID
	Type    string
	URL     string
	Payload []byte
}

// EventJob is a queued event together with its delivery bookkeeping.
type EventJob struct {
	ID        uuid.UUID
	Type      string
	URL       string
	Payload   []byte
	Status    string
	Attempts  int
	NextRunAt time.Time
	CreatedAt time.Time
}

// TransactionEventPayload is the body delivered to webhook receivers.
type TransactionEventPayload struct {
	Event       string      `json:"event"`
	Transaction Transaction `json:"transaction"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

// NewTransactionEvent builds the "transaction.<status>" event for t.
func NewTransactionEvent(t Transaction, url string, now time.Time) (Event, error) {
	name := "transaction." + string(t.Status)

	payload, err := json.Marshal(TransactionEventPayload{
		Event:       name,
		Transaction: t,
		OccurredAt:  now,
	})
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", name, err)
	}

	return Event{
		ID:      uuid.New(),
		Type:    name,
		URL:     url,
		Payload: payload,
	}, nil
}
