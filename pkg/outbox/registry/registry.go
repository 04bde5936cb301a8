// Package registry routes outbox rows to Kafka topics and decodes their
// payloads into typed events before they are published.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/enums"
	"github.com/angelmondragon/tally-backend/pkg/outbox"
	"github.com/angelmondragon/tally-backend/pkg/outbox/payloads"
)

// EventDescriptor is everything the publisher needs to know about one event type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	// NewPayload returns a pointer for the data section to be decoded into.
	NewPayload func() any
}

type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that can never be published as stored.
// The publisher moves such rows to the DLQ on first failure.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable"
	}
	return "non-retryable: " + e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewEventRegistry(cfg config.KafkaConfig) (*EventRegistry, error) {
	switch {
	case cfg.InvoicesTopic == "":
		return nil, errors.New("registry: invoices topic is required")
	case cfg.InventoryTopic == "":
		return nil, errors.New("registry: inventory topic is required")
	}

	descriptors := []EventDescriptor{
		{
			EventType:     enums.EventInvoiceCreated,
			AggregateType: enums.AggregateInvoice,
			Topic:         cfg.InvoicesTopic,
			NewPayload:    func() any { return &payloads.InvoiceCreatedEvent{} },
		},
		{
			EventType:     enums.EventProductStockDepleted,
			AggregateType: enums.AggregateProduct,
			Topic:         cfg.InventoryTopic,
			NewPayload:    func() any { return &payloads.ProductStockDepletedEvent{} },
		},
	}

	reg := &EventRegistry{byType: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, d := range descriptors {
		reg.byType[d.EventType] = d
	}
	return reg, nil
}

// Topics returns the distinct topics, sorted.
func (r *EventRegistry) Topics() []string {
	topics := make([]string, 0, len(r.byType))
	for _, d := range r.byType {
		topics = append(topics, d.Topic)
	}
	slices.Sort(topics)
	return slices.Compact(topics)
}

// Resolve checks a row against its descriptor and decodes the payload. Every
// error it returns is a NonRetryableError: retrying a malformed row cannot help.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	resolved, err := r.resolve(event)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	return resolved, nil
}

func (r *EventRegistry) resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.byType[event.EventType]
	switch {
	case !ok:
		return nil, fmt.Errorf("unsupported event type %q", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, fmt.Errorf("%s belongs to %s aggregates, row says %s", event.EventType, desc.AggregateType, event.AggregateType)
	case event.AggregateID == 0:
		return nil, errors.New("aggregate_id is zero")
	}

	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", event.EventType, err)
	}
	payload := desc.NewPayload()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, fmt.Errorf("decode %s data: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: env, Payload: payload}, nil
}
