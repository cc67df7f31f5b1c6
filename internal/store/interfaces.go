package store

import (
	"context"
	"time"

	"storefront-catalog-service/internal/domain"
)

// Snapshot keys. One key holds the full CSV blob for its entity; SavedAt is
// the companion last-save time.
const (
	SnapshotKeyProducts   = "products"
	SnapshotKeyCategories = "categories"
)

// Snapshot is one persisted CSV blob plus its save time.
type Snapshot struct {
	Data    []byte
	SavedAt time.Time
}

// SnapshotStore persists whole CSV blobs under string keys. There is no
// partial write: every mutation of the catalog overwrites the full blob.
type SnapshotStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) (Snapshot, error) // ErrSnapshotNotFound when absent
	Close() error
}

// ListCategoriesParams holds pagination for listing categories.
type ListCategoriesParams struct {
	Limit  int
	Offset int
}

// CategoryStorer defines the admin operations on the category tagging list.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*domain.Category, error)
	ListCategories(ctx context.Context, params ListCategoriesParams) ([]domain.Category, int, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// ListProductsParams holds search, filter, sort and pagination parameters.
type ListProductsParams struct {
	Limit       int
	Offset      int
	SearchQuery *string // substring over name/description/sku
	Category    *string
	InStock     *bool
	MinPrice    *float64
	MaxPrice    *float64
	SortBy      string // "name", "price", "created_at", "updated_at"
	SortOrder   string // "asc" or "desc"
}

// ProductStorer defines the storefront and admin operations on the product
// list. ImportProducts replaces the list wholesale; RefreshCatalog re-runs the
// merge pipeline against the configured sources.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ImportProducts(ctx context.Context, products []domain.Product) (int, error)
	RefreshCatalog(ctx context.Context) (*RefreshResult, error)
}

// RefreshResult summarizes one catalog refresh for the admin UI.
type RefreshResult struct {
	RunID    string         `json:"run_id"`
	Products int            `json:"products"`
	Sources  map[string]int `json:"sources"`
	Errors   []string       `json:"errors,omitempty"`
}
