package layout

import (
	"sort"

	"fogcatalog/models"
)

// CategoryUncategorized is the divider bucket for products without a category
const CategoryUncategorized = "Uncategorized"

const (
	minColumns = 2
	maxColumns = 4

	// Grid layouts stack this many rows per page, so items per page is
	// columnsPerRow * itemsPerColumn (2->6, 3->9, 4->12).
	itemsPerColumn = 3

	// defaultItemsPerPage is the 3-column grid density, used for unknown
	// layout ids and out-of-range column counts.
	defaultItemsPerPage = 9
)

// Config selects the page layout policy for a catalog render
type Config struct {
	LayoutID               string   `json:"layoutId"`
	ColumnsPerRow          int      `json:"columnsPerRow"`
	EnableCoverPage        bool     `json:"enableCoverPage"`
	EnableCategoryDividers bool     `json:"enableCategoryDividers"`
	CategoryOrder          []string `json:"categoryOrder,omitempty"`
}

// density maps a layout id to its product density per page
type density struct {
	base              int
	scalesWithColumns bool
}

var densities = map[string]density{
	"grid":     {base: defaultItemsPerPage, scalesWithColumns: true},
	"list":     {base: 6},
	"magazine": {base: 4},
	"showcase": {base: 2},
}

// ItemsPerPage resolves the product density for a config. Unknown layout ids
// and column counts outside [2,4] degrade to the 3-column grid default rather
// than erroring, since "something reasonable" beats failure in a print layout.
func ItemsPerPage(cfg Config) int {
	d, ok := densities[cfg.LayoutID]
	if !ok {
		return defaultItemsPerPage
	}
	if d.scalesWithColumns {
		if cfg.ColumnsPerRow < minColumns || cfg.ColumnsPerRow > maxColumns {
			return defaultItemsPerPage
		}
		return cfg.ColumnsPerRow * itemsPerColumn
	}
	return d.base
}

// ComputePages computes the ordered page sequence for a catalog render:
// cover (if enabled), then either category dividers each followed by that
// bucket's product pages, or plain product pages. Every input product appears
// exactly once, in original relative order. The result is never empty: an
// empty product list still yields a single empty products page.
func ComputePages(products []models.Product, cfg Config) []models.CatalogPage {
	var pages []models.CatalogPage

	if cfg.EnableCoverPage {
		pages = append(pages, models.CatalogPage{Kind: models.PageCover})
	}

	perPage := ItemsPerPage(cfg)

	if cfg.EnableCategoryDividers {
		keys, buckets := groupByCategory(products)
		sortCategories(keys, cfg.CategoryOrder)

		for _, key := range keys {
			bucket := buckets[key]
			divider := models.CatalogPage{
				Kind:         models.PageDivider,
				CategoryName: key,
			}
			if len(bucket) > 0 {
				divider.FirstProductImage = bucket[0].FirstImage()
			}
			pages = append(pages, divider)
			pages = appendProductPages(pages, bucket, perPage)
		}
	} else {
		pages = appendProductPages(pages, products, perPage)
	}

	// Never return zero product pages: the renderer always has something to paint.
	if len(products) == 0 {
		pages = append(pages, models.CatalogPage{Kind: models.PageProducts, Products: []models.Product{}})
	}

	return pages
}

// appendProductPages chunks items into consecutive slices of perPage and
// appends one products page per slice
func appendProductPages(pages []models.CatalogPage, items []models.Product, perPage int) []models.CatalogPage {
	for i := 0; i < len(items); i += perPage {
		end := i + perPage
		if end > len(items) {
			end = len(items)
		}
		pages = append(pages, models.CatalogPage{
			Kind:     models.PageProducts,
			Products: items[i:end],
		})
	}
	return pages
}

// groupByCategory buckets products by exact category string, preserving
// first-seen bucket order. Multi-category strings are not split: the field is
// keyed as-is, so a comma-joined category forms its own bucket.
func groupByCategory(products []models.Product) ([]string, map[string][]models.Product) {
	var keys []string
	buckets := make(map[string][]models.Product)

	for _, p := range products {
		key := p.Category
		if key == "" {
			key = CategoryUncategorized
		}
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], p)
	}

	return keys, buckets
}

// sortCategories reorders keys by their index in order. Keys not present in
// order sort after all present ones, stable among themselves. A nil or empty
// order keeps the natural first-seen grouping order.
func sortCategories(keys []string, order []string) {
	if len(order) == 0 {
		return
	}
	rank := make(map[string]int, len(order))
	for i, name := range order {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}
	missing := len(order)
	sort.SliceStable(keys, func(i, j int) bool {
		ri, ok := rank[keys[i]]
		if !ok {
			ri = missing
		}
		rj, ok := rank[keys[j]]
		if !ok {
			rj = missing
		}
		return ri < rj
	})
}
