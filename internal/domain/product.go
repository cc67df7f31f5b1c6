package domain

import (
	"time"
)

// Category is the admin-facing tagging entity. It is maintained independently
// of the free-form Product.Category string; no referential integrity is
// enforced between the two.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product is the canonical record every supplier catalog is normalized into.
// IDs are assigned during a merge run and are not stable across re-imports.
// Price is a pointer so "absent" and "zero" stay distinguishable.
type Product struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Subcategory    string    `json:"subcategory,omitempty"`
	Description    string    `json:"description,omitempty"`
	Price          *float64  `json:"price,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	InStock        bool      `json:"in_stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Brand          string    `json:"brand,omitempty"`
	Series         string    `json:"series,omitempty"`
	Material       string    `json:"material,omitempty"`
	Features       string    `json:"features,omitempty"`
	Specifications string    `json:"specifications,omitempty"`
	Dimensions     string    `json:"dimensions,omitempty"`
	Weight         string    `json:"weight,omitempty"`
	Color          string    `json:"color,omitempty"`
	Model          string    `json:"model,omitempty"`
	SKU            string    `json:"sku,omitempty"`
	Capacity       string    `json:"capacity,omitempty"`
	Variants       string    `json:"variants,omitempty"`
}

// DefaultCategory is used when neither the extraction context nor the record
// itself carries a category.
const DefaultCategory = "Uncategorized"
