package enums

import "slices"

// ProductType tags a product as fuel or general merchandise.
type ProductType string

const (
	ProductTypeFuel  ProductType = "fuel"
	ProductTypeOther ProductType = "other"
)

var productTypes = []ProductType{ProductTypeFuel, ProductTypeOther}

func (t ProductType) String() string { return string(t) }

func (t ProductType) IsValid() bool { return slices.Contains(productTypes, t) }

// ParseProductType is case sensitive; callers lower-case user input first.
func ParseProductType(value string) (ProductType, error) {
	return parse("product type", value, productTypes)
}
