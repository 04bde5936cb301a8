package customer

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/pagination"
)

// ListQuery narrows a customer page.
type ListQuery struct {
	Cursor *pagination.Cursor
	Limit  int
	Search string
}

// Repository is the customer directory.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// EmailExists reports whether another customer already uses email.
func (r *Repository) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Customer{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *Repository) Update(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *Repository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Customer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of customers, newest first. Search matches name or email.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Customer, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if q.Cursor != nil {
		query = query.Where("id < ?", q.Cursor.ID)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var rows []models.Customer
	if err := query.
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, q.Limit, func(c models.Customer) uint64 { return c.ID })
	return page, next, nil
}
