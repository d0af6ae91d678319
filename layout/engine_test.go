package layout

import (
	"fmt"
	"reflect"
	"testing"

	"fogcatalog/models"
)

func makeProducts(n int) []models.Product {
	products := make([]models.Product, n)
	for i := range products {
		products[i] = models.Product{
			ID:   fmt.Sprintf("p%d", i+1),
			Name: fmt.Sprintf("Product %d", i+1),
		}
	}
	return products
}

func TestItemsPerPage(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"grid 2 columns", Config{LayoutID: "grid", ColumnsPerRow: 2}, 6},
		{"grid 3 columns", Config{LayoutID: "grid", ColumnsPerRow: 3}, 9},
		{"grid 4 columns", Config{LayoutID: "grid", ColumnsPerRow: 4}, 12},
		{"grid columns too low", Config{LayoutID: "grid", ColumnsPerRow: 1}, 9},
		{"grid columns too high", Config{LayoutID: "grid", ColumnsPerRow: 7}, 9},
		{"grid columns zero", Config{LayoutID: "grid"}, 9},
		{"list", Config{LayoutID: "list", ColumnsPerRow: 4}, 6},
		{"magazine", Config{LayoutID: "magazine"}, 4},
		{"showcase", Config{LayoutID: "showcase"}, 2},
		{"unknown layout", Config{LayoutID: "holographic", ColumnsPerRow: 4}, 9},
		{"empty layout id", Config{}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemsPerPage(tt.cfg); got != tt.want {
				t.Errorf("ItemsPerPage(%+v) = %d, want %d", tt.cfg, got, tt.want)
			}
		})
	}
}

// collectProducts flattens product pages back into a single id list
func collectProducts(pages []models.CatalogPage) []string {
	var ids []string
	for _, page := range pages {
		if page.Kind != models.PageProducts {
			continue
		}
		for _, p := range page.Products {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func TestComputePagesPartitionsInOrder(t *testing.T) {
	products := makeProducts(23)
	cfg := Config{LayoutID: "grid", ColumnsPerRow: 3}

	pages := ComputePages(products, cfg)

	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, page := range pages {
		if page.Kind != models.PageProducts {
			t.Fatalf("page %d kind = %s, want products", i, page.Kind)
		}
	}
	if got := len(pages[0].Products); got != 9 {
		t.Errorf("first page has %d products, want 9", got)
	}
	if got := len(pages[2].Products); got != 5 {
		t.Errorf("last page has %d products, want 5", got)
	}

	var want []string
	for _, p := range products {
		want = append(want, p.ID)
	}
	if got := collectProducts(pages); !reflect.DeepEqual(got, want) {
		t.Errorf("products dropped, duplicated or reordered:\ngot  %v\nwant %v", got, want)
	}
}

func TestComputePagesCoverIsAlwaysFirst(t *testing.T) {
	cfgs := []Config{
		{LayoutID: "grid", ColumnsPerRow: 3, EnableCoverPage: true},
		{LayoutID: "showcase", EnableCoverPage: true, EnableCategoryDividers: true},
		{LayoutID: "nope", ColumnsPerRow: 99, EnableCoverPage: true},
	}
	for _, cfg := range cfgs {
		pages := ComputePages(makeProducts(5), cfg)
		if len(pages) == 0 || pages[0].Kind != models.PageCover {
			t.Errorf("cfg %+v: page 0 is not a cover", cfg)
		}
	}
}

func TestComputePagesEmptyProductList(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []models.PageKind
	}{
		{"bare", Config{LayoutID: "grid", ColumnsPerRow: 3}, []models.PageKind{models.PageProducts}},
		{"with cover", Config{LayoutID: "grid", ColumnsPerRow: 3, EnableCoverPage: true}, []models.PageKind{models.PageCover, models.PageProducts}},
		{"with dividers", Config{LayoutID: "grid", ColumnsPerRow: 3, EnableCategoryDividers: true}, []models.PageKind{models.PageProducts}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := ComputePages(nil, tt.cfg)
			var kinds []models.PageKind
			for _, p := range pages {
				kinds = append(kinds, p.Kind)
			}
			if !reflect.DeepEqual(kinds, tt.want) {
				t.Errorf("kinds = %v, want %v", kinds, tt.want)
			}
			last := pages[len(pages)-1]
			if len(last.Products) != 0 {
				t.Errorf("trailing products page is not empty: %v", last.Products)
			}
		})
	}
}

func TestComputePagesCategoryDividers(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Category: "Chairs", Images: []string{"chair1.jpg"}},
		{ID: "p2", Category: "Chairs"},
		{ID: "p3", Category: "Tables"},
	}
	// showcase density is 2, so Chairs fills one page and Tables another
	pages := ComputePages(products, Config{LayoutID: "showcase", EnableCategoryDividers: true})

	wantKinds := []models.PageKind{models.PageDivider, models.PageProducts, models.PageDivider, models.PageProducts}
	var kinds []models.PageKind
	for _, p := range pages {
		kinds = append(kinds, p.Kind)
	}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Fatalf("kinds = %v, want %v", kinds, wantKinds)
	}

	if pages[0].CategoryName != "Chairs" {
		t.Errorf("first divider = %q, want Chairs", pages[0].CategoryName)
	}
	if pages[0].FirstProductImage != "chair1.jpg" {
		t.Errorf("first divider image = %q, want chair1.jpg", pages[0].FirstProductImage)
	}
	if pages[2].CategoryName != "Tables" {
		t.Errorf("second divider = %q, want Tables", pages[2].CategoryName)
	}
	if pages[2].FirstProductImage != "" {
		t.Errorf("second divider image = %q, want empty", pages[2].FirstProductImage)
	}

	if got := collectProducts(pages); !reflect.DeepEqual(got, []string{"p1", "p2", "p3"}) {
		t.Errorf("product order = %v", got)
	}
}

func TestComputePagesDividerCountMatchesBuckets(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Category: "Chairs"},
		{ID: "p2"},
		{ID: "p3", Category: "Tables"},
		{ID: "p4", Category: "Chairs"},
		{ID: "p5"},
	}
	pages := ComputePages(products, Config{LayoutID: "grid", ColumnsPerRow: 3, EnableCategoryDividers: true})

	var dividers []string
	for _, p := range pages {
		if p.Kind == models.PageDivider {
			dividers = append(dividers, p.CategoryName)
		}
	}
	// First-seen bucket order; missing category lands in the designated bucket.
	want := []string{"Chairs", CategoryUncategorized, "Tables"}
	if !reflect.DeepEqual(dividers, want) {
		t.Errorf("dividers = %v, want %v", dividers, want)
	}

	// Every products page between two dividers belongs to the preceding bucket.
	current := ""
	byBucket := map[string][]string{}
	for _, page := range pages {
		switch page.Kind {
		case models.PageDivider:
			current = page.CategoryName
		case models.PageProducts:
			for _, p := range page.Products {
				byBucket[current] = append(byBucket[current], p.ID)
			}
		}
	}
	if !reflect.DeepEqual(byBucket["Chairs"], []string{"p1", "p4"}) {
		t.Errorf("Chairs bucket = %v", byBucket["Chairs"])
	}
	if !reflect.DeepEqual(byBucket[CategoryUncategorized], []string{"p2", "p5"}) {
		t.Errorf("uncategorized bucket = %v", byBucket[CategoryUncategorized])
	}
	if !reflect.DeepEqual(byBucket["Tables"], []string{"p3"}) {
		t.Errorf("Tables bucket = %v", byBucket["Tables"])
	}
}

func TestComputePagesExplicitCategoryOrder(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Category: "Chairs"},
		{ID: "p2", Category: "Tables"},
		{ID: "p3", Category: "Lamps"},
		{ID: "p4", Category: "Rugs"},
	}
	cfg := Config{
		LayoutID:               "grid",
		ColumnsPerRow:          3,
		EnableCategoryDividers: true,
		CategoryOrder:          []string{"Tables", "Chairs"},
	}

	pages := ComputePages(products, cfg)

	var dividers []string
	for _, p := range pages {
		if p.Kind == models.PageDivider {
			dividers = append(dividers, p.CategoryName)
		}
	}
	// Ordered buckets first, then unlisted ones stable in first-seen order.
	want := []string{"Tables", "Chairs", "Lamps", "Rugs"}
	if !reflect.DeepEqual(dividers, want) {
		t.Errorf("dividers = %v, want %v", dividers, want)
	}
}

func TestComputePagesMultiCategoryStringIsNotSplit(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Category: "Chairs,Tables"},
		{ID: "p2", Category: "Chairs"},
	}
	pages := ComputePages(products, Config{LayoutID: "grid", ColumnsPerRow: 3, EnableCategoryDividers: true})

	var dividers []string
	for _, p := range pages {
		if p.Kind == models.PageDivider {
			dividers = append(dividers, p.CategoryName)
		}
	}
	if !reflect.DeepEqual(dividers, []string{"Chairs,Tables", "Chairs"}) {
		t.Errorf("dividers = %v, comma-joined categories must form their own bucket", dividers)
	}
}
