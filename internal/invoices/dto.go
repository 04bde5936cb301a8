package invoice

import (
	"time"

	customer "github.com/angelmondragon/tally-backend/internal/customers"
	product "github.com/angelmondragon/tally-backend/internal/products"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
)

// InvoiceDTO is the invoice graph returned to clients. CustomerName and
// CustomerEmail are the values captured at creation; Customer is the live record.
type InvoiceDTO struct {
	ID            uint64                `json:"id"`
	CustomerID    uint64                `json:"customerId"`
	CustomerName  string                `json:"customerName"`
	CustomerEmail string                `json:"customerEmail"`
	Customer      *customer.CustomerDTO `json:"customer,omitempty"`
	InvoiceDate   time.Time             `json:"invoiceDate"`
	Total         string                `json:"total"`
	Items         []InvoiceItemDTO      `json:"items"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// InvoiceItemDTO is one invoice line with its product nested.
type InvoiceItemDTO struct {
	ID          uint64              `json:"id"`
	ProductID   uint64              `json:"productId"`
	Product     *product.ProductDTO `json:"product,omitempty"`
	Position    int                 `json:"position"`
	Quantity    int                 `json:"quantity"`
	PriceAtSale string              `json:"priceAtSale"`
	LineTotal   string              `json:"lineTotal"`
}

func NewInvoiceDTO(invoice *models.Invoice) *InvoiceDTO {
	if invoice == nil {
		return nil
	}
	items := make([]InvoiceItemDTO, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, InvoiceItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Product:     product.NewProductDTO(item.Product),
			Position:    item.Position,
			Quantity:    item.Quantity,
			PriceAtSale: item.PriceAtSale.StringFixed(2),
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}
	return &InvoiceDTO{
		ID:            invoice.ID,
		CustomerID:    invoice.CustomerID,
		CustomerName:  invoice.CustomerName,
		CustomerEmail: invoice.CustomerEmail,
		Customer:      customer.NewCustomerDTO(invoice.Customer),
		InvoiceDate:   invoice.InvoiceDate,
		Total:         invoice.Total.StringFixed(2),
		Items:         items,
		CreatedAt:     invoice.CreatedAt,
	}
}

func newInvoiceDTOs(invoices []models.Invoice) []InvoiceDTO {
	out := make([]InvoiceDTO, 0, len(invoices))
	for i := range invoices {
		out = append(out, *NewInvoiceDTO(&invoices[i]))
	}
	return out
}
