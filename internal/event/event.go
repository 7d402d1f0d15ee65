// Package event defines the domain events carried from the outbox to the
// notifier, and the transport-neutral publisher and subscriber contracts.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeApplicationSubmitted     = "application.submitted"
	TypeApplicationStatusChanged = "application.status_changed"
)

// Envelope is the wire form of every event. Key groups related events
// (one application) so partitioned transports keep their order.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func New(eventType, key string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:         uuid.New(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

func (e Envelope) Decode(dst interface{}) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// PartitionKey is Key, or the event id when no key was set.
func (e Envelope) PartitionKey() string {
	if e.Key != "" {
		return e.Key
	}
	return e.ID.String()
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("event has no type")
	}
	return e, nil
}

// ApplicationSubmitted is emitted when a student applies to a job.
type ApplicationSubmitted struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	StudentID     uuid.UUID `json:"studentId"`
	StudentUserID uuid.UUID `json:"studentUserId"`
	StudentName   string    `json:"studentName"`
	JobID         uuid.UUID `json:"jobId"`
	JobTitle      string    `json:"jobTitle"`
	CompanyName   string    `json:"companyName"`
}

// ApplicationStatusChanged is emitted on every recorded decision.
type ApplicationStatusChanged struct {
	ApplicationID  uuid.UUID `json:"applicationId"`
	StudentUserID  uuid.UUID `json:"studentUserId"`
	StudentName    string    `json:"studentName"`
	JobID          uuid.UUID `json:"jobId"`
	JobTitle       string    `json:"jobTitle"`
	CompanyName    string    `json:"companyName"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	ChangedBy      uuid.UUID `json:"changedBy"`
}

type Publisher interface {
	Publish(ctx context.Context, e Envelope) error
	Close() error
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, e Envelope) error

// Subscriber delivers events to h until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}
