package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/pagination"
)

// Service exposes customer directory operations.
type Service interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*CustomerDTO, error)
	GetCustomer(ctx context.Context, id uint64) (*CustomerDTO, error)
	UpdateCustomer(ctx context.Context, id uint64, input UpdateCustomerInput) (*CustomerDTO, error)
	DeleteCustomer(ctx context.Context, id uint64) error
	ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error)
}

// ListCustomersInput captures the directory filters.
type ListCustomersInput struct {
	Search     string
	Pagination pagination.Params
}

// Address groups the optional postal fields.
type Address struct {
	Street     *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
}

// CustomerInput holds the validated payload to create a customer.
type CustomerInput struct {
	Name    string
	Email   string
	Phones  []string
	Address Address
	TaxID   *string
}

// UpdateCustomerInput holds optional mutation values.
type UpdateCustomerInput struct {
	Name    *string
	Email   *string
	Phones  *[]string
	Address *Address
	TaxID   *string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CustomerInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := s.ensureEmailAvailable(ctx, email, 0); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:   name,
		Email:  email,
		Phones: cleanPhones(input.Phones),
		TaxID:  trimOptional(input.TaxID),
	}
	applyAddress(customer, input.Address)

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, mapWriteError(err, "db: insert customer")
	}
	return NewCustomerDTO(created), nil
}

func (s *service) GetCustomer(ctx context.Context, id uint64) (*CustomerDTO, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uint64, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		customer.Name = name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if email != customer.Email {
			if err := s.ensureEmailAvailable(ctx, email, id); err != nil {
				return nil, err
			}
		}
		customer.Email = email
	}
	if input.Phones != nil {
		customer.Phones = cleanPhones(*input.Phones)
	}
	if input.Address != nil {
		applyAddress(customer, *input.Address)
	}
	if input.TaxID != nil {
		customer.TaxID = trimOptional(input.TaxID)
	}

	updated, err := s.repo.Update(ctx, customer)
	if err != nil {
		return nil, mapWriteError(err, "db: update customer")
	}
	return NewCustomerDTO(updated), nil
}

func (s *service) DeleteCustomer(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "customer has invoices")
		}
		return mapLookupError(err, id)
	}
	return nil
}

func (s *service) ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, ListQuery{Cursor: cursor, Limit: input.Pagination.Limit, Search: input.Search})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list customers")
	}
	result := &CustomerListResult{Items: make([]CustomerDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Items = append(result.Items, *NewCustomerDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) ensureEmailAvailable(ctx context.Context, email string, excludeID uint64) error {
	exists, err := s.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check customer email")
	}
	if exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
	}
	return nil
}

func applyAddress(customer *models.Customer, address Address) {
	customer.Street = trimOptional(address.Street)
	customer.City = trimOptional(address.City)
	customer.State = trimOptional(address.State)
	customer.PostalCode = trimOptional(address.PostalCode)
	customer.Country = trimOptional(address.Country)
}

func cleanPhones(phones []string) []string {
	out := make([]string, 0, len(phones))
	for _, phone := range phones {
		if trimmed := strings.TrimSpace(phone); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
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

// mapWriteError turns a unique index hit that raced past the pre-check into a conflict.
func mapWriteError(err error, msg string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func mapLookupError(err error, id uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(pkgerrors.KindCustomer, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
}
