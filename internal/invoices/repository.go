package invoice

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tally-backend/pkg/db/models"
)

// Repository persists invoices and loads them with customer, items and item products.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the invoice header and then its items in slice order.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Omit(clause.Associations).Create(invoice).Error; err != nil {
		return err
	}
	if len(invoice.Items) == 0 {
		return nil
	}
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}
	return conn.Omit(clause.Associations).Create(&invoice.Items).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.withGraph(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns every invoice, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.withGraph(ctx).
		Order("invoice_date DESC").
		Order("id DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID uint64) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.withGraph(ctx).
		Where("customer_id = ?", customerID).
		Order("invoice_date DESC").
		Order("id DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *Repository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Product")
}
