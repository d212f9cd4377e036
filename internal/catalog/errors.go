package catalog

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrVariantRequired    = errors.New("select all options before adding this product")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrInsufficientStock  = errors.New("not enough stock")
)
