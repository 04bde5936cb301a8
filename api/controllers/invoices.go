package controllers

import (
	"net/http"

	"github.com/angelmondragon/tally-backend/api/responses"
	"github.com/angelmondragon/tally-backend/api/validators"
	invoice "github.com/angelmondragon/tally-backend/internal/invoices"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/logger"
)

// CreateInvoice reserves stock for every requested line and records the sale.
func CreateInvoice(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		var payload createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateInvoice(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCreated(w, created)
	}
}

func GetInvoice(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

func ListInvoices(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		items, err := svc.ListInvoices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// ListCustomerInvoices returns the invoices billed to one customer.
func ListCustomerInvoices(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		customerID, err := validators.ParseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListInvoicesByCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

type createInvoiceRequest struct {
	CustomerID uint64               `json:"customerId" validate:"required"`
	Items      []invoiceLineRequest `json:"items" validate:"required,min=1,dive"`
}

type invoiceLineRequest struct {
	ProductID uint64 `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

func (r createInvoiceRequest) toInput() invoice.CreateInvoiceInput {
	lines := make([]invoice.LineRequest, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, invoice.LineRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return invoice.CreateInvoiceInput{
		CustomerID: r.CustomerID,
		Items:      lines,
	}
}
