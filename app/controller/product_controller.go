package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fogcatalog/models"
	"fogcatalog/repository"
	"fogcatalog/service"
)

// ProductController handles HTTP requests for products
type ProductController struct {
	repository repository.ProductRepositoryInterface
}

// NewProductController creates a new ProductController
func NewProductController(repo repository.ProductRepositoryInterface) *ProductController {
	return &ProductController{
		repository: repo,
	}
}

// Products handles /admin/products (GET lists, POST creates)
func (c *ProductController) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.listProducts(w, r)
	case http.MethodPost:
		c.createProduct(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ProductByID handles /admin/products/{id} (GET, PUT, DELETE)
func (c *ProductController) ProductByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/products/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c.getProduct(w, r, id)
	case http.MethodPut:
		c.updateProduct(w, r, id)
	case http.MethodDelete:
		c.deleteProduct(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (c *ProductController) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := c.repository.GetAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		http.Error(w, fmt.Sprintf("Failed to list products: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (c *ProductController) createProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name cannot be empty", http.StatusBadRequest)
		return
	}
	if req.Price < 0 {
		http.Error(w, "price cannot be negative", http.StatusBadRequest)
		return
	}
	if len(req.Images) > models.MaxImagesPerProduct {
		http.Error(w, fmt.Sprintf("a product can have at most %d images", models.MaxImagesPerProduct), http.StatusBadRequest)
		return
	}

	product := &models.Product{
		ID:               uuid.New().String(),
		Name:             req.Name,
		SKU:              strings.TrimSpace(req.SKU),
		Price:            req.Price,
		Stock:            req.Stock,
		Category:         strings.TrimSpace(req.Category),
		Images:           req.Images,
		CustomAttributes: req.CustomAttributes,
		IsActive:         true,
	}

	if err := c.repository.Create(r.Context(), product); err != nil {
		log.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		http.Error(w, fmt.Sprintf("Failed to create product: %v", err), http.StatusInternalServerError)
		return
	}

	log.Info().Str("id", product.ID).Str("name", product.Name).Msg("product created")
	writeJSON(w, http.StatusCreated, product)
}

func (c *ProductController) getProduct(w http.ResponseWriter, r *http.Request, id string) {
	product, err := c.repository.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to fetch product")
		http.Error(w, fmt.Sprintf("Failed to fetch product: %v", err), http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (c *ProductController) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := c.repository.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to fetch product for update")
		http.Error(w, fmt.Sprintf("Failed to fetch product: %v", err), http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	product.ID = id
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		http.Error(w, "name cannot be empty", http.StatusBadRequest)
		return
	}
	if len(product.Images) > models.MaxImagesPerProduct {
		http.Error(w, fmt.Sprintf("a product can have at most %d images", models.MaxImagesPerProduct), http.StatusBadRequest)
		return
	}

	if err := c.repository.Update(r.Context(), &product); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to update product")
		http.Error(w, fmt.Sprintf("Failed to update product: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (c *ProductController) deleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	if err := c.repository.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to delete product")
		http.Error(w, fmt.Sprintf("Failed to delete product: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validImageSizes is a map of valid optimized image size values
var validImageSizes = map[string]bool{
	"thumb":  true,
	"medium": true,
}

// GetOptimizedImage handles GET /images/product?id=XXX&index=0&size=thumb|medium
// Serves a resized, cached copy of one of the product's stored images.
func (c *ProductController) GetOptimizedImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id parameter is required", http.StatusBadRequest)
		return
	}

	size := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("size")))
	if size == "" {
		size = "thumb"
	}
	if !validImageSizes[size] {
		http.Error(w, "Invalid size. Valid sizes: thumb, medium", http.StatusBadRequest)
		return
	}

	index := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("index")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid index", http.StatusBadRequest)
			return
		}
		index = n
	}

	cachePath := service.GetCachePath(id, index, size)
	if service.CacheExists(cachePath) {
		data, err := service.ReadFromCache(cachePath)
		if err == nil {
			serveJPEG(w, data)
			return
		}
		log.Warn().Err(err).Str("path", cachePath).Msg("failed to read cached image, refetching")
	}

	product, err := c.repository.GetByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to fetch product for image")
		http.Error(w, fmt.Sprintf("Failed to fetch product: %v", err), http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if index >= len(product.Images) {
		http.Error(w, fmt.Sprintf("Image %d not found", index), http.StatusNotFound)
		return
	}

	resp, err := http.Get(product.Images[index])
	if err != nil {
		log.Error().Err(err).Str("url", product.Images[index]).Msg("failed to fetch stored image")
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.Error(w, fmt.Sprintf("Image endpoint returned status %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "Failed to read image data", http.StatusBadGateway)
		return
	}

	optimized, err := service.OptimizeImage(raw, size)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Int("index", index).Msg("image optimization failed, serving original")
		serveJPEG(w, raw)
		return
	}

	if err := service.SaveToCache(cachePath, optimized); err != nil {
		log.Warn().Err(err).Str("path", cachePath).Msg("failed to cache optimized image")
	}

	serveJPEG(w, optimized)
}

func serveJPEG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write image response")
	}
}

// writeJSON encodes v as the JSON response body
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
