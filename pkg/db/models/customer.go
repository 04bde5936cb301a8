package models

import "time"

// Customer is a billable party. Invoices reference it but never mutate it.
type Customer struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;not null"`
	Email      string    `gorm:"column:email;not null;uniqueIndex:customers_email_key"`
	Phones     []string  `gorm:"column:phones;type:jsonb;serializer:json"`
	Street     *string   `gorm:"column:street"`
	City       *string   `gorm:"column:city"`
	State      *string   `gorm:"column:state"`
	PostalCode *string   `gorm:"column:postal_code"`
	Country    *string   `gorm:"column:country"`
	TaxID      *string   `gorm:"column:tax_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
