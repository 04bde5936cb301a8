package errors

import "fmt"

// Entity kinds reported by NotFound.
const (
	KindCustomer = "customer"
	KindProduct  = "product"
	KindInvoice  = "invoice"
)

// NotFoundDetails identifies the missing entity.
type NotFoundDetails struct {
	Kind string `json:"kind"`
	ID   uint64 `json:"id"`
}

// InsufficientStockDetails describes a rejected stock reservation.
type InsufficientStockDetails struct {
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// NotFound reports a referenced entity that does not exist.
func NotFound(kind string, id uint64) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s %d not found", kind, id)).
		WithDetails(NotFoundDetails{Kind: kind, ID: id})
}

// InsufficientStock reports a line whose quantity exceeds the product's stock.
func InsufficientStock(productID uint64, productName string, requested, available int) *Error {
	msg := fmt.Sprintf("insufficient stock for product %q: requested %d, available %d", productName, requested, available)
	return New(CodeInsufficientStock, msg).WithDetails(InsufficientStockDetails{
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	})
}

// Persistence wraps a storage failure. Callers may retry the whole operation.
func Persistence(err error, message string) *Error {
	return Wrap(CodeDependency, err, message)
}
