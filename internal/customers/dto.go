package customer

import (
	"time"

	"github.com/angelmondragon/tally-backend/pkg/db/models"
)

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phones     []string  `json:"phones"`
	Street     *string   `json:"street,omitempty"`
	City       *string   `json:"city,omitempty"`
	State      *string   `json:"state,omitempty"`
	PostalCode *string   `json:"postalCode,omitempty"`
	Country    *string   `json:"country,omitempty"`
	TaxID      *string   `json:"taxId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CustomerListResult is one page of customers.
type CustomerListResult struct {
	Items      []CustomerDTO `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

func NewCustomerDTO(customer *models.Customer) *CustomerDTO {
	if customer == nil {
		return nil
	}
	phones := append([]string{}, customer.Phones...)
	return &CustomerDTO{
		ID:         customer.ID,
		Name:       customer.Name,
		Email:      customer.Email,
		Phones:     phones,
		Street:     customer.Street,
		City:       customer.City,
		State:      customer.State,
		PostalCode: customer.PostalCode,
		Country:    customer.Country,
		TaxID:      customer.TaxID,
		CreatedAt:  customer.CreatedAt,
		UpdatedAt:  customer.UpdatedAt,
	}
}
