package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"fogcatalog/db"
	"fogcatalog/models"
)

// ProductRepository handles database operations for products
type ProductRepository struct{}

// NewProductRepository creates a new ProductRepository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// Ensure ProductRepository implements ProductRepositoryInterface
var _ ProductRepositoryInterface = (*ProductRepository)(nil)

const productColumns = `
	id,
	name,
	COALESCE(sku, '') AS sku,
	price,
	stock,
	COALESCE(category, '') AS category,
	COALESCE(images, '[]') AS images,
	COALESCE(custom_attributes, '[]') AS custom_attributes,
	is_active,
	created_at::text
`

func scanProduct(scan func(dest ...any) error) (models.Product, error) {
	var p models.Product
	var images, attrs []byte

	if err := scan(
		&p.ID,
		&p.Name,
		&p.SKU,
		&p.Price,
		&p.Stock,
		&p.Category,
		&images,
		&attrs,
		&p.IsActive,
		&p.CreatedAt,
	); err != nil {
		return p, err
	}

	if err := json.Unmarshal(images, &p.Images); err != nil {
		return p, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(attrs, &p.CustomAttributes); err != nil {
		return p, fmt.Errorf("failed to decode custom attributes: %w", err)
	}
	return p, nil
}

// GetAll retrieves all products, newest first
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan product row")
			continue
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by id
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(db.DB.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &p, nil
}

// GetActiveForCatalog retrieves active products for catalog generation,
// optionally filtered by category, in stable name order
func (r *ProductRepository) GetActiveForCatalog(ctx context.Context, category string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan catalog product row")
			continue
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog products: %w", err)
	}

	log.Debug().Int("count", len(products)).Str("category", category).Msg("fetched catalog products")
	return products, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}
	attrs, err := json.Marshal(product.CustomAttributes)
	if err != nil {
		return fmt.Errorf("failed to encode custom attributes: %w", err)
	}

	query := `
		INSERT INTO products (id, name, sku, price, stock, category, images, custom_attributes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, NOW())
	`
	if _, err := db.DB.ExecContext(ctx, query,
		product.ID, product.Name, product.SKU, product.Price, product.Stock,
		product.Category, images, attrs,
	); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update overwrites a product's mutable fields
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}
	attrs, err := json.Marshal(product.CustomAttributes)
	if err != nil {
		return fmt.Errorf("failed to encode custom attributes: %w", err)
	}

	query := `
		UPDATE products
		SET name = $2, sku = $3, price = $4, stock = $5, category = $6,
		    images = $7, custom_attributes = $8, is_active = $9
		WHERE id = $1
	`
	res, err := db.DB.ExecContext(ctx, query,
		product.ID, product.Name, product.SKU, product.Price, product.Stock,
		product.Category, images, attrs, product.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product %s not found", product.ID)
	}
	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := db.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// BulkAppendProductImages appends uploaded URLs to each listed product inside
// one transaction. Rows are locked while the current list is read so a
// concurrent batch cannot interleave, and each list is capped at
// models.MaxImagesPerProduct.
func (r *ProductRepository) BulkAppendProductImages(ctx context.Context, updates []models.ProductImages) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		var raw []byte
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(images, '[]') FROM products WHERE id = $1 FOR UPDATE`, u.ProductID,
		).Scan(&raw)
		if err != nil {
			return fmt.Errorf("failed to read images for product %s: %w", u.ProductID, err)
		}

		var current []string
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("failed to decode images for product %s: %w", u.ProductID, err)
		}

		current = append(current, u.Images...)
		if len(current) > models.MaxImagesPerProduct {
			current = current[:models.MaxImagesPerProduct]
		}

		encoded, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("failed to encode images for product %s: %w", u.ProductID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET images = $2 WHERE id = $1`, u.ProductID, encoded,
		); err != nil {
			return fmt.Errorf("failed to update images for product %s: %w", u.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit image updates: %w", err)
	}

	log.Info().Int("products", len(updates)).Msg("batch image sync committed")
	return nil
}
