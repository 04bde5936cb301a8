package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tally-backend/pkg/enums"
)

// Product is a sellable item and its on-hand stock.
type Product struct {
	ID          uint64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string            `gorm:"column:name;not null"`
	Type        enums.ProductType `gorm:"column:type;type:text;not null;default:other"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null;check:price >= 0"`
	Stock       int               `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	Description *string           `gorm:"column:description"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
