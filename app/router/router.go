package router

import (
	"net/http"

	"fogcatalog/app/controller"
	"fogcatalog/metrics"
)

type Controllers struct {
	Product *controller.ProductController
	Catalog *controller.CatalogController
	Upload  *controller.UploadController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func SetupRoutes(controllers *Controllers) {
	// Ping endpoint
	http.HandleFunc("/ping", pingHandler)

	// Prometheus metrics
	http.Handle("/metrics", metrics.Handler())

	// Product routes
	http.HandleFunc("/admin/products", controllers.Product.Products)
	http.HandleFunc("/admin/products/", controllers.Product.ProductByID)

	// Optimized image cache (used by the catalog templates)
	http.HandleFunc("/images/product", controllers.Product.GetOptimizedImage)

	// Catalog generation routes
	http.HandleFunc("/admin/catalog", controllers.Catalog.GenerateCatalog)
	http.HandleFunc("/admin/catalog/render", controllers.Catalog.RenderCatalog)
	http.HandleFunc("/admin/catalog/png-page", controllers.Catalog.DownloadPNGPage)

	// Bulk image upload routes
	http.HandleFunc("/admin/images/upload", controllers.Upload.UploadImages)
	http.HandleFunc("/admin/images/upload/status", controllers.Upload.UploadStatus)
	http.HandleFunc("/admin/images/import", controllers.Upload.ImportFromDrive)
}
