package product

import (
	"time"

	"github.com/angelmondragon/tally-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients. Money is
// rendered as a fixed two-decimal string so it never passes through a float.
type ProductDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Type:        string(product.Type),
		Price:       product.Price.StringFixed(2),
		Stock:       product.Stock,
		Description: product.Description,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
