package models

import "fmt"

// MaxImagesPerProduct is the hard cap on images attached to a single product.
// Enforced before upload and again when appending URLs in the repository.
const MaxImagesPerProduct = 5

// CustomAttribute is a free-form product attribute (e.g. "Weight", "2.5", "kg")
type CustomAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Product represents a merchant product in the database
type Product struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	SKU              string            `json:"sku,omitempty"`
	Price            int64             `json:"price"` // minor units
	Stock            int               `json:"stock"`
	Category         string            `json:"category,omitempty"`
	Images           []string          `json:"images"`
	CustomAttributes []CustomAttribute `json:"customAttributes"`
	IsActive         bool              `json:"isActive"`
	CreatedAt        string            `json:"createdAt"`
}

// FirstImage returns the product's first image URL, or "" when it has none
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// PriceDisplay formats the minor-unit price for the catalog templates
func (p Product) PriceDisplay() string {
	return fmt.Sprintf("$%d.%02d", p.Price/100, p.Price%100)
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name             string            `json:"name"`
	SKU              string            `json:"sku"`
	Price            int64             `json:"price"`
	Stock            int               `json:"stock"`
	Category         string            `json:"category"`
	Images           []string          `json:"images"`
	CustomAttributes []CustomAttribute `json:"customAttributes"`
}

// ProductImages pairs a product id with image URLs to append, used by the
// deferred batch sync after a bulk upload.
type ProductImages struct {
	ProductID string   `json:"productId"`
	Images    []string `json:"images"`
}
