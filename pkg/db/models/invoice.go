package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a frozen ledger entry: its total and items never change after creation.
type Invoice struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID    uint64          `gorm:"column:customer_id;not null;index"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	CustomerName  string          `gorm:"column:customer_name;not null"`
	CustomerEmail string          `gorm:"column:customer_email;not null"`
	InvoiceDate   time.Time       `gorm:"column:invoice_date;not null;index"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// InvoiceItem pins a product, a quantity and the unit price at the moment of sale.
type InvoiceItem struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID   uint64          `gorm:"column:invoice_id;not null;index"`
	ProductID   uint64          `gorm:"column:product_id;not null;index"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Position    int             `gorm:"column:position;not null"`
	Quantity    int             `gorm:"column:quantity;not null;check:quantity > 0"`
	PriceAtSale decimal.Decimal `gorm:"column:price_at_sale;type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null"`
}
