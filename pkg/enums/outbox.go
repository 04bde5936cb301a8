package enums

import "slices"

// OutboxAggregateType is the entity an outbox event is about. It is sent as
// the aggregate_type Kafka header.
type OutboxAggregateType string

const (
	AggregateInvoice OutboxAggregateType = "invoice"
	AggregateProduct OutboxAggregateType = "product"
)

var aggregateTypes = []OutboxAggregateType{AggregateInvoice, AggregateProduct}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", value, aggregateTypes)
}

// OutboxEventType names a domain event.
type OutboxEventType string

const (
	EventInvoiceCreated       OutboxEventType = "invoice_created"
	EventProductStockDepleted OutboxEventType = "product_stock_depleted"
)

var eventTypes = []OutboxEventType{EventInvoiceCreated, EventProductStockDepleted}

func (e OutboxEventType) IsValid() bool { return slices.Contains(eventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", value, eventTypes)
}
