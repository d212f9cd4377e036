package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductType selects the availability rules that apply to a product
type ProductType string

const (
	ProductTypePhysical     ProductType = "physical"
	ProductTypeDigital      ProductType = "digital"
	ProductTypeService      ProductType = "service"
	ProductTypeSubscription ProductType = "subscription"
)

// Valid reports whether t is one of the known product types
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypePhysical, ProductTypeDigital, ProductTypeService, ProductTypeSubscription:
		return true
	}
	return false
}

// ProductStatus is the publishing state of a product. Only published products are orderable.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusArchived  ProductStatus = "archived"
	ProductStatusInactive  ProductStatus = "inactive"
)

// Product represents a storefront catalog entry owned by a member
type Product struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	MemberID      string        `json:"member_id" db:"member_id"`
	Name          string        `json:"name" db:"name"`
	Description   string        `json:"description" db:"description"`
	Category      string        `json:"category" db:"category"`
	Tags          []string      `json:"tags" db:"tags"`
	Type          ProductType   `json:"type" db:"type"`
	Price         Money         `json:"price" db:"price"`
	Status        ProductStatus `json:"status" db:"status"`
	StockQuantity *int          `json:"stock_quantity" db:"stock_quantity"`
	ImageURL      string        `json:"image_url" db:"image_url"`
	Variants      []Variant     `json:"variants"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Variant is a concrete purchasable configuration of a product
type Variant struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	ProductID     uuid.UUID         `json:"product_id" db:"product_id"`
	SKU           string            `json:"sku" db:"sku"`
	Attributes    map[string]string `json:"attributes" db:"attributes"`
	Price         Money             `json:"price" db:"price"`
	StockQuantity *int              `json:"stock_quantity" db:"stock_quantity"`
	Weight        Money             `json:"weight" db:"weight"`
	Dimensions    *Dimensions       `json:"dimensions,omitempty" db:"dimensions"`
	IsActive      bool              `json:"is_active" db:"is_active"`
}

// Dimensions of a shippable variant
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ActiveVariants returns the variants that can be selected, in catalog order
func (p *Product) ActiveVariants() []Variant {
	active := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.IsActive {
			active = append(active, v)
		}
	}
	return active
}

// HasVariants reports whether the product requires a variant selection
func (p *Product) HasVariants() bool {
	for _, v := range p.Variants {
		if v.IsActive {
			return true
		}
	}
	return false
}

// Variant looks up a variant by ID, active or not
func (p *Product) Variant(id uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// IntPtr is a convenience for optional stock quantities
func IntPtr(v int) *int {
	return &v
}
