package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/pagination"
)

// Service exposes product management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uint64) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint64, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uint64) error
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Type        enums.ProductType
	Price       decimal.Decimal
	Stock       int
	Description *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Type        *enums.ProductType
	Price       *decimal.Decimal
	Stock       *int
	Description *string
}

// ListProductsInput captures the browse filters.
type ListProductsInput struct {
	Type       *enums.ProductType
	Search     string
	Pagination pagination.Params
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Type == "" {
		input.Type = enums.ProductTypeOther
	}
	if err := validateFields(input.Type, input.Price, input.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Type:        input.Type,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		Description: trimOptional(input.Description),
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) GetProduct(ctx context.Context, id uint64) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	return NewProductDTO(product), nil
}

// UpdateProduct applies the patch under a row lock so it cannot interleave
// with an invoice decrementing the same row.
func (s *service) UpdateProduct(ctx context.Context, id uint64, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err, id)
		}
		if err := applyUpdate(product, input); err != nil {
			return err
		}
		updated, err = repo.Update(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is referenced by invoices")
		}
		return mapLookupError(err, id)
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.Type != nil && !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type must be fuel or other")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, ListQuery{
		Cursor: cursor,
		Limit:  input.Pagination.Limit,
		Type:   input.Type,
		Search: input.Search,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	result := &ProductListResult{Items: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Items = append(result.Items, *NewProductDTO(&rows[i]))
	}
	return result, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Type != nil {
		product.Type = *input.Type
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Description != nil {
		product.Description = trimOptional(input.Description)
	}
	return validateFields(product.Type, product.Price, product.Stock)
}

func validateFields(productType enums.ProductType, price decimal.Decimal, stock int) error {
	if !productType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "type must be fuel or other")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be zero or greater")
	}
	return nil
}

func mapLookupError(err error, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(pkgerrors.KindProduct, id)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
