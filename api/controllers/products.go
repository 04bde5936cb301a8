package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tally-backend/api/responses"
	"github.com/angelmondragon/tally-backend/api/validators"
	product "github.com/angelmondragon/tally-backend/internal/products"
	"github.com/angelmondragon/tally-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/logger"
)

// CreateProduct handles catalogue inserts.
func CreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCreated(w, created)
	}
}

// GetProduct returns a single product.
func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

// ListProducts pages through the catalogue, optionally filtered by type or name.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.ListProductsInput{
			Search:     searchQuery(r),
			Pagination: params,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			productType, err := enums.ParseProductType(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			input.Type = &productType
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UpdateProduct applies a partial update.
func UpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// DeleteProduct removes a product that no invoice references.
func DeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Type        string  `json:"type" validate:"omitempty,oneof=fuel other"`
	Price       string  `json:"price" validate:"required,decimal"`
	Stock       *int    `json:"stock" validate:"required,gte=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=fuel other"`
	Price       *string `json:"price,omitempty" validate:"omitempty,decimal"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

func (r createProductRequest) toCreateInput() (product.CreateProductInput, error) {
	price, err := parsePrice(r.Price)
	if err != nil {
		return product.CreateProductInput{}, err
	}

	productType := enums.ProductTypeOther
	if r.Type != "" {
		productType = enums.ProductType(r.Type)
	}

	return product.CreateProductInput{
		Name:        strings.TrimSpace(r.Name),
		Type:        productType,
		Price:       price,
		Stock:       *r.Stock,
		Description: r.Description,
	}, nil
}

func (r updateProductRequest) toUpdateInput() (product.UpdateProductInput, error) {
	input := product.UpdateProductInput{
		Name:        r.Name,
		Stock:       r.Stock,
		Description: r.Description,
	}
	if r.Type != nil {
		productType := enums.ProductType(*r.Type)
		input.Type = &productType
	}
	if r.Price != nil {
		price, err := parsePrice(*r.Price)
		if err != nil {
			return product.UpdateProductInput{}, err
		}
		input.Price = &price
	}
	return input, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
	}
	return price, nil
}
