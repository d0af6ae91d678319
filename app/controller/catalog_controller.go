package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"fogcatalog/layout"
	"fogcatalog/metrics"
	"fogcatalog/repository"
	"fogcatalog/service"
)

// pngSessionTTL controls how long captured pages stay downloadable
const pngSessionTTL = 10 * time.Minute

// CatalogController handles HTTP requests for catalog generation
type CatalogController struct {
	repository     repository.ProductRepositoryInterface
	catalogService *service.CatalogService
	baseURL        string
	// Temporary storage for PNG pages (key: sessionID, value: map of page number to PNG data)
	pngStorage      map[string]map[int][]byte
	pngStorageMutex sync.RWMutex
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(repo repository.ProductRepositoryInterface, catalogService *service.CatalogService, baseURL string) *CatalogController {
	return &CatalogController{
		repository:     repo,
		catalogService: catalogService,
		baseURL:        baseURL,
		pngStorage:     make(map[string]map[int][]byte),
	}
}

// validLayouts is a map of valid layout values
var validLayouts = map[string]bool{
	"grid":     true,
	"list":     true,
	"magazine": true,
	"showcase": true,
}

// validFormats is a map of valid format values
var validFormats = map[string]bool{
	"html": true,
	"pdf":  true,
	"png":  true,
}

// parseLayoutConfig reads the layout query parameters shared by the generate
// and render endpoints.
func parseLayoutConfig(r *http.Request) (layout.Config, error) {
	q := r.URL.Query()

	layoutID := strings.ToLower(strings.TrimSpace(q.Get("layout")))
	if layoutID == "" {
		layoutID = "grid"
	}
	if !validLayouts[layoutID] {
		return layout.Config{}, fmt.Errorf("invalid layout %q, valid layouts: grid, list, magazine, showcase", layoutID)
	}

	columns := 3
	if raw := strings.TrimSpace(q.Get("columns")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return layout.Config{}, fmt.Errorf("invalid columns value %q", raw)
		}
		columns = n
	}

	cfg := layout.Config{
		LayoutID:               layoutID,
		ColumnsPerRow:          columns,
		EnableCoverPage:        q.Get("cover") != "false",
		EnableCategoryDividers: q.Get("dividers") == "true",
	}

	if raw := strings.TrimSpace(q.Get("categories")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.CategoryOrder = append(cfg.CategoryOrder, name)
			}
		}
	}

	return cfg, nil
}

// GenerateCatalog handles GET /admin/catalog?format=html|pdf|png&layout=grid&columns=3
func (c *CatalogController) GenerateCatalog(w http.ResponseWriter, r *http.Request) {
	// png-page requests share this route prefix
	if strings.HasPrefix(r.URL.Path, "/admin/catalog/png-page") {
		c.DownloadPNGPage(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "html"
	}
	if !validFormats[format] {
		log.Warn().Str("format", format).Msg("invalid catalog format requested")
		http.Error(w, "Invalid format. Valid formats: html, pdf, png", http.StatusBadRequest)
		return
	}

	cfg, err := parseLayoutConfig(r)
	if err != nil {
		log.Warn().Err(err).Msg("invalid catalog request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		title = "Product Catalog"
	}

	products, err := c.repository.GetActiveForCatalog(ctx, category)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch products for catalog")
		http.Error(w, fmt.Sprintf("Failed to fetch products: %v", err), http.StatusInternalServerError)
		return
	}

	pages := layout.ComputePages(products, cfg)
	start := time.Now()

	switch format {
	case "html":
		htmlContent, err := c.catalogService.RenderCatalogHTML(ctx, title, products, cfg)
		if err != nil {
			log.Error().Err(err).Msg("failed to render catalog HTML")
			http.Error(w, fmt.Sprintf("Failed to render catalog: %v", err), http.StatusInternalServerError)
			return
		}
		metrics.ObserveRender("html", time.Since(start))
		metrics.AddPagesRendered(len(pages))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(htmlContent)); err != nil {
			log.Error().Err(err).Msg("failed to write HTML response")
		}

	case "pdf":
		// raster=true captures each page as PNG and reassembles them, for
		// layouts where Chrome's print pipeline breaks the page CSS
		var pdfData []byte
		if r.URL.Query().Get("raster") == "true" {
			pngs, err := c.catalogService.GeneratePNG(ctx, c.renderURL(r), len(pages))
			if err != nil {
				log.Error().Err(err).Msg("failed to capture catalog pages")
				http.Error(w, fmt.Sprintf("Failed to generate PDF: %v", err), http.StatusInternalServerError)
				return
			}
			pdfData, err = service.AssemblePDF(pngs)
			if err != nil {
				log.Error().Err(err).Msg("failed to assemble PDF")
				http.Error(w, fmt.Sprintf("Failed to generate PDF: %v", err), http.StatusInternalServerError)
				return
			}
		} else {
			pdfData, err = c.catalogService.GeneratePDF(ctx, c.renderURL(r))
			if err != nil {
				log.Error().Err(err).Msg("failed to generate PDF")
				http.Error(w, fmt.Sprintf("Failed to generate PDF: %v", err), http.StatusInternalServerError)
				return
			}
		}
		metrics.ObserveRender("pdf", time.Since(start))
		metrics.AddPagesRendered(len(pages))

		filename := fmt.Sprintf("catalog_%s.pdf", cfg.LayoutID)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(pdfData); err != nil {
			log.Error().Err(err).Msg("failed to write PDF response")
		}

	case "png":
		pngs, err := c.catalogService.GeneratePNG(ctx, c.renderURL(r), len(pages))
		if err != nil {
			log.Error().Err(err).Msg("failed to generate PNG pages")
			http.Error(w, fmt.Sprintf("Failed to generate PNG: %v", err), http.StatusInternalServerError)
			return
		}
		metrics.ObserveRender("png", time.Since(start))
		metrics.AddPagesRendered(len(pngs))

		sessionID := fmt.Sprintf("%s_%d", cfg.LayoutID, time.Now().UnixNano())

		c.pngStorageMutex.Lock()
		c.pngStorage[sessionID] = pngs
		c.pngStorageMutex.Unlock()

		go func() {
			time.Sleep(pngSessionTTL)
			c.pngStorageMutex.Lock()
			delete(c.pngStorage, sessionID)
			c.pngStorageMutex.Unlock()
		}()

		type PageLink struct {
			Page     int    `json:"page"`
			URL      string `json:"url"`
			Filename string `json:"filename"`
		}

		var links []PageLink
		for i := 1; i <= len(pngs); i++ {
			if _, exists := pngs[i]; !exists {
				continue
			}
			downloadPath := fmt.Sprintf("/admin/catalog/png-page?session=%s&page=%d", sessionID, i)
			var filename string
			if len(pngs) == 1 {
				filename = fmt.Sprintf("catalog_%s.png", cfg.LayoutID)
			} else {
				filename = fmt.Sprintf("catalog_%s_page_%d.png", cfg.LayoutID, i)
			}
			links = append(links, PageLink{Page: i, URL: downloadPath, Filename: filename})
		}

		response := map[string]interface{}{
			"sessionId":  sessionID,
			"totalPages": len(pngs),
			"layout":     cfg.LayoutID,
			"pages":      links,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Error().Err(err).Msg("failed to encode PNG session response")
		}
	}
}

// renderURL rebuilds the incoming layout query against the render endpoint,
// which Chrome navigates to when printing or capturing.
func (c *CatalogController) renderURL(r *http.Request) string {
	return fmt.Sprintf("%s/admin/catalog/render?%s", c.baseURL, r.URL.RawQuery)
}

// RenderCatalog handles GET /admin/catalog/render?layout=grid&columns=3
// Returns the HTML template for the catalog (used by chromedp for PDF/PNG generation)
func (c *CatalogController) RenderCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	cfg, err := parseLayoutConfig(r)
	if err != nil {
		log.Warn().Err(err).Msg("invalid render request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		title = "Product Catalog"
	}

	products, err := c.repository.GetActiveForCatalog(ctx, category)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch products for render")
		http.Error(w, fmt.Sprintf("Failed to fetch products: %v", err), http.StatusInternalServerError)
		return
	}

	htmlContent, err := c.catalogService.RenderCatalogHTML(ctx, title, products, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to render catalog HTML")
		http.Error(w, fmt.Sprintf("Failed to render catalog: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(htmlContent)); err != nil {
		log.Error().Err(err).Msg("failed to write render response")
	}
}

// DownloadPNGPage handles GET /admin/catalog/png-page?session=XXX&page=N
// Returns a specific PNG page from temporary storage
func (c *CatalogController) DownloadPNGPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	pageStr := strings.TrimSpace(r.URL.Query().Get("page"))

	if sessionID == "" {
		http.Error(w, "session parameter is required", http.StatusBadRequest)
		return
	}

	pageNum, err := strconv.Atoi(pageStr)
	if err != nil || pageNum < 1 {
		http.Error(w, "Invalid page number", http.StatusBadRequest)
		return
	}

	c.pngStorageMutex.RLock()
	pngs, exists := c.pngStorage[sessionID]
	c.pngStorageMutex.RUnlock()

	if !exists {
		http.Error(w, "Session expired or not found", http.StatusNotFound)
		return
	}

	pngData, exists := pngs[pageNum]
	if !exists {
		http.Error(w, fmt.Sprintf("Page %d not found", pageNum), http.StatusNotFound)
		return
	}

	// PNG files start with a fixed signature
	pngSignature := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if len(pngData) < 8 || !equalBytes(pngData[:8], pngSignature) {
		log.Error().Int("page", pageNum).Str("session", sessionID).Msg("stored page is not a valid PNG")
		http.Error(w, "Invalid PNG data", http.StatusInternalServerError)
		return
	}

	// Session ID format: LAYOUT_TIMESTAMP
	layoutID := "grid"
	if parts := strings.Split(sessionID, "_"); len(parts) > 0 && parts[0] != "" {
		layoutID = parts[0]
	}

	filename := fmt.Sprintf("catalog_%s_page_%d.png", layoutID, pageNum)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pngData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pngData); err != nil {
		log.Error().Err(err).Int("page", pageNum).Msg("failed to write PNG response")
	}
}

// equalBytes compares two byte slices
func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
