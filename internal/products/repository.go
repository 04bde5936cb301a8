package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/enums"
	"github.com/angelmondragon/tally-backend/pkg/pagination"
)

var (
	// ErrStockUnderflow is returned when a decrement would drive stock below zero.
	ErrStockUnderflow = errors.New("stock underflow")
	// ErrInvalidAmount is returned for negative decrement amounts.
	ErrInvalidAmount = errors.New("decrement amount must not be negative")
)

// ListQuery narrows a product page.
type ListQuery struct {
	Cursor *pagination.Cursor
	Limit  int
	Type   *enums.ProductType
	Search string
}

// Repository is the product stock ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate loads the product and, on Postgres, holds a row lock until
// the surrounding transaction ends. SQLite serialises writers instead.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if db.SupportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts amount from the product's stock only when enough
// stock remains, and returns the updated row. It never leaves a partial effect:
// on failure the row is untouched and the error is gorm.ErrRecordNotFound or
// ErrStockUnderflow.
func (r *Repository) DecrementStock(ctx context.Context, id uint64, amount int) (*models.Product, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if amount > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", id, amount).
			UpdateColumns(map[string]any{
				"stock":      gorm.Expr("stock - ?", amount),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := r.FindByID(ctx, id); err != nil {
				return nil, err
			}
			return nil, ErrStockUnderflow
		}
	}
	return r.FindByID(ctx, id)
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves every column of an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID. Missing rows report gorm.ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of products, newest first.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Product, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if q.Cursor != nil {
		query = query.Where("id < ?", q.Cursor.ID)
	}
	if q.Type != nil {
		query = query.Where("type = ?", *q.Type)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	var rows []models.Product
	if err := query.
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, q.Limit, func(p models.Product) uint64 { return p.ID })
	return page, next, nil
}
