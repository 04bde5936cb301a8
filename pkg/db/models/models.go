package models

// All lists every persisted model in dependency order, for test schemas
// and the SQLite dev bootstrap.
func All() []any {
	return []any{
		&Customer{},
		&Product{},
		&Invoice{},
		&InvoiceItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
