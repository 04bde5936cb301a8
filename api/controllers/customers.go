package controllers

import (
	"net/http"

	"github.com/angelmondragon/tally-backend/api/responses"
	"github.com/angelmondragon/tally-backend/api/validators"
	customer "github.com/angelmondragon/tally-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/logger"
)

func CreateCustomer(svc customer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateCustomer(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCreated(w, created)
	}
}

func GetCustomer(svc customer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.GetCustomer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

func ListCustomers(svc customer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListCustomers(r.Context(), customer.ListCustomersInput{
			Search:     searchQuery(r),
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UpdateCustomer patches a customer. A supplied address replaces the stored one.
func UpdateCustomer(svc customer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateCustomer(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

func DeleteCustomer(svc customer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCustomer(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

type addressRequest struct {
	Street     *string `json:"street,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=120"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=120"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country    *string `json:"country,omitempty" validate:"omitempty,max=120"`
}

type createCustomerRequest struct {
	Name    string          `json:"name" validate:"required,max=255"`
	Email   string          `json:"email" validate:"required,email,max=320"`
	Phones  []string        `json:"phones,omitempty" validate:"omitempty,max=10,dive,max=40"`
	Address *addressRequest `json:"address,omitempty"`
	TaxID   *string         `json:"taxId,omitempty" validate:"omitempty,max=40"`
}

type updateCustomerRequest struct {
	Name    *string         `json:"name,omitempty" validate:"omitempty,max=255"`
	Email   *string         `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Phones  *[]string       `json:"phones,omitempty" validate:"omitempty,max=10,dive,max=40"`
	Address *addressRequest `json:"address,omitempty"`
	TaxID   *string         `json:"taxId,omitempty" validate:"omitempty,max=40"`
}

func (a *addressRequest) toAddress() customer.Address {
	if a == nil {
		return customer.Address{}
	}
	return customer.Address{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (r createCustomerRequest) toInput() customer.CustomerInput {
	return customer.CustomerInput{
		Name:    r.Name,
		Email:   r.Email,
		Phones:  r.Phones,
		Address: r.Address.toAddress(),
		TaxID:   r.TaxID,
	}
}

func (r updateCustomerRequest) toInput() customer.UpdateCustomerInput {
	input := customer.UpdateCustomerInput{
		Name:   r.Name,
		Email:  r.Email,
		Phones: r.Phones,
		TaxID:  r.TaxID,
	}
	if r.Address != nil {
		address := r.Address.toAddress()
		input.Address = &address
	}
	return input
}
