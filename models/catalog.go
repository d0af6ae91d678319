package models

// PageKind discriminates the catalog page union
type PageKind string

const (
	PageCover    PageKind = "cover"
	PageDivider  PageKind = "divider"
	PageProducts PageKind = "products"
)

// CatalogPage is one page of a computed catalog. Pages are ephemeral:
// recomputed on every render from the current product selection and layout
// settings, never persisted.
type CatalogPage struct {
	Kind PageKind `json:"kind"`

	// Divider fields
	CategoryName      string `json:"categoryName,omitempty"`
	FirstProductImage string `json:"firstProductImage,omitempty"`

	// Products fields
	Products []Product `json:"products,omitempty"`
}

// CatalogData is the data structure passed to the catalog HTML template
type CatalogData struct {
	Title     string        `json:"title"`
	Pages     []CatalogPage `json:"pages"`
	PageCount int           `json:"pageCount"`
	Columns   int           `json:"columns"`
}
