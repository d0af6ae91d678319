package repository

import (
	"context"

	"fogcatalog/models"
)

// ProductRepositoryInterface defines the contract for product repository operations
type ProductRepositoryInterface interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetActiveForCatalog(ctx context.Context, category string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// BulkAppendProductImages appends uploaded image URLs to each product's
	// image list inside a single transaction, capping each list at
	// models.MaxImagesPerProduct.
	BulkAppendProductImages(ctx context.Context, updates []models.ProductImages) error
}
