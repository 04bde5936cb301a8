package payloads

import "time"

// InvoiceLine is the event view of a single invoice item.
type InvoiceLine struct {
	ProductID   uint64 `json:"product_id"`
	Quantity    int    `json:"quantity"`
	PriceAtSale string `json:"price_at_sale"`
	LineTotal   string `json:"line_total"`
}

// InvoiceCreatedEvent is emitted once an invoice and its stock reservations commit.
type InvoiceCreatedEvent struct {
	InvoiceID     uint64        `json:"invoice_id"`
	CustomerID    uint64        `json:"customer_id"`
	CustomerEmail string        `json:"customer_email"`
	InvoiceDate   time.Time     `json:"invoice_date"`
	Total         string        `json:"total"`
	Lines         []InvoiceLine `json:"lines"`
}

// ProductStockDepletedEvent is emitted when an invoice drives a product's stock to zero.
type ProductStockDepletedEvent struct {
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	InvoiceID   uint64 `json:"invoice_id"`
}
