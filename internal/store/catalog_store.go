package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-catalog-service/internal/catalog"
	"storefront-catalog-service/internal/csvcodec"
	"storefront-catalog-service/internal/domain"
)

// CatalogStore is the single in-memory authoritative product and category
// list, backed by CSV snapshots. Every mutation re-encodes the full list and
// overwrites the blob; the blob is written before the in-memory swap, so a
// failed persist leaves memory untouched and callers see the error.
type CatalogStore struct {
	mu         sync.RWMutex
	products   []domain.Product
	categories []domain.Category

	snapshots SnapshotStore
	codec     *csvcodec.Codec
	merger    *catalog.Merger
	sources   []catalog.Source
	logger    *log.Logger
	now       func() time.Time
}

// Compile-time interface checks.
var (
	_ ProductStorer  = (*CatalogStore)(nil)
	_ CategoryStorer = (*CatalogStore)(nil)
)

// NewCatalogStore wires the store to its snapshot backend and the merge
// pipeline used for bootstrap and refresh.
func NewCatalogStore(snapshots SnapshotStore, codec *csvcodec.Codec, merger *catalog.Merger, sources []catalog.Source, logger *log.Logger) *CatalogStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CatalogStore{
		snapshots: snapshots,
		codec:     codec,
		merger:    merger,
		sources:   sources,
		logger:    logger,
		now:       time.Now,
	}
}

// Load performs the cold-start sequence: read the persisted product blob; if
// it is absent or empty, run the merge pipeline to bootstrap one and persist
// it. A failing snapshot backend degrades to an empty list here (reads must
// not take the service down); write paths keep demanding persistence.
func (s *CatalogStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, ok := s.loadProductsSnapshot(ctx)
	if !ok {
		report := s.merger.Merge(ctx, s.sources)
		products = report.Products
		if len(products) > 0 {
			if err := s.snapshots.Save(ctx, SnapshotKeyProducts, s.codec.EncodeProducts(products)); err != nil {
				s.logger.Printf("WARN: bootstrap persist failed, serving from memory only: %v", err)
			}
		}
	}
	s.products = products

	s.categories = nil
	if snap, err := s.snapshots.Load(ctx, SnapshotKeyCategories); err == nil {
		if categories, err := s.codec.DecodeCategories(snap.Data); err == nil {
			s.categories = categories
		}
	}

	s.logger.Printf("INFO: catalog store loaded: %d products, %d categories", len(s.products), len(s.categories))
	return nil
}

func (s *CatalogStore) loadProductsSnapshot(ctx context.Context) ([]domain.Product, bool) {
	snap, err := s.snapshots.Load(ctx, SnapshotKeyProducts)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			s.logger.Printf("WARN: product snapshot unreadable, bootstrapping from sources: %v", err)
		}
		return nil, false
	}
	products, err := s.codec.DecodeProducts(snap.Data)
	if err != nil || len(products) == 0 {
		return nil, false
	}
	return products, true
}

// Close releases the snapshot backend.
func (s *CatalogStore) Close() error {
	return s.snapshots.Close()
}

// --- ProductStorer ---

func (s *CatalogStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *product
	p.ID = maxProductID(s.products) + 1
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	candidate := append(cloneProducts(s.products), p)
	if err := s.persistProducts(ctx, candidate); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogStore) GetProductByID(_ context.Context, id int) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
}

func (s *CatalogStore) ListProducts(_ context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if matchesParams(p, params) {
			filtered = append(filtered, p)
		}
	}
	sortProductsBy(filtered, params.SortBy, params.SortOrder)

	total := len(filtered)
	start := params.Offset
	if start > total {
		start = total
	}
	end := total
	if params.Limit > 0 && start+params.Limit < total {
		end = start + params.Limit
	}
	return filtered[start:end], total, nil
}

func (s *CatalogStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.products {
		if s.products[i].ID == product.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, product.ID)
	}

	p := *product
	p.CreatedAt = s.products[idx].CreatedAt
	p.UpdatedAt = s.now()

	candidate := cloneProducts(s.products)
	candidate[idx] = p
	if err := s.persistProducts(ctx, candidate); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogStore) DeleteProduct(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := make([]domain.Product, 0, len(s.products))
	found := false
	for _, p := range s.products {
		if p.ID == id {
			found = true
			continue
		}
		candidate = append(candidate, p)
	}
	if !found {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return s.persistProducts(ctx, candidate)
}

// ImportProducts replaces the whole list. Records without a name are rejected
// up front; IDs are reassigned as one sequence after the canonical sort so the
// uniqueness invariant holds no matter what the upload carried.
func (s *CatalogStore) ImportProducts(ctx context.Context, products []domain.Product) (int, error) {
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return 0, fmt.Errorf("store: import record %d has no name", i+1)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	candidate := cloneProducts(products)
	for i := range candidate {
		if candidate[i].Category == "" {
			candidate[i].Category = domain.DefaultCategory
		}
		if candidate[i].CreatedAt.IsZero() {
			candidate[i].CreatedAt = now
		}
		candidate[i].UpdatedAt = now
	}
	catalog.SortProducts(candidate)
	for i := range candidate {
		candidate[i].ID = i + 1
	}

	if err := s.persistProducts(ctx, candidate); err != nil {
		return 0, err
	}
	return len(candidate), nil
}

// RefreshCatalog re-runs the merge pipeline against the configured sources and
// replaces the product list with the result.
func (s *CatalogStore) RefreshCatalog(ctx context.Context) (*RefreshResult, error) {
	report := s.merger.Merge(ctx, s.sources)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistProducts(ctx, report.Products); err != nil {
		return nil, err
	}

	result := &RefreshResult{
		RunID:    report.RunID,
		Products: len(report.Products),
		Sources:  report.PerSource,
	}
	for _, srcErr := range report.Errors {
		result.Errors = append(result.Errors, srcErr.Error())
	}
	return result, nil
}

// persistProducts writes the candidate list and only then installs it in
// memory. Callers must hold the write lock.
func (s *CatalogStore) persistProducts(ctx context.Context, candidate []domain.Product) error {
	if err := s.snapshots.Save(ctx, SnapshotKeyProducts, s.codec.EncodeProducts(candidate)); err != nil {
		return fmt.Errorf("store: persist products: %w", err)
	}
	s.products = candidate
	return nil
}

// --- CategoryStorer ---

func (s *CatalogStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *category
	c.ID = maxCategoryID(s.categories) + 1
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	candidate := append(cloneCategories(s.categories), c)
	if err := s.persistCategories(ctx, candidate); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CatalogStore) GetCategoryByID(_ context.Context, id int) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.categories {
		if s.categories[i].ID == id {
			c := s.categories[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
}

func (s *CatalogStore) ListCategories(_ context.Context, params ListCategoriesParams) ([]domain.Category, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := cloneCategories(s.categories)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	total := len(sorted)
	start := params.Offset
	if start > total {
		start = total
	}
	end := total
	if params.Limit > 0 && start+params.Limit < total {
		end = start + params.Limit
	}
	return sorted[start:end], total, nil
}

func (s *CatalogStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.categories {
		if s.categories[i].ID == category.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: id %d", ErrCategoryNotFound, category.ID)
	}

	c := *category
	c.CreatedAt = s.categories[idx].CreatedAt
	c.UpdatedAt = s.now()

	candidate := cloneCategories(s.categories)
	candidate[idx] = c
	if err := s.persistCategories(ctx, candidate); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CatalogStore) DeleteCategory(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := make([]domain.Category, 0, len(s.categories))
	found := false
	for _, c := range s.categories {
		if c.ID == id {
			found = true
			continue
		}
		candidate = append(candidate, c)
	}
	if !found {
		return fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	return s.persistCategories(ctx, candidate)
}

func (s *CatalogStore) persistCategories(ctx context.Context, candidate []domain.Category) error {
	if err := s.snapshots.Save(ctx, SnapshotKeyCategories, s.codec.EncodeCategories(candidate)); err != nil {
		return fmt.Errorf("store: persist categories: %w", err)
	}
	s.categories = candidate
	return nil
}

// --- helpers ---

func matchesParams(p domain.Product, params ListProductsParams) bool {
	if params.SearchQuery != nil && *params.SearchQuery != "" {
		q := strings.ToLower(*params.SearchQuery)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.SKU), q) {
			return false
		}
	}
	if params.Category != nil && *params.Category != "" && p.Category != *params.Category {
		return false
	}
	if params.InStock != nil && p.InStock != *params.InStock {
		return false
	}
	if params.MinPrice != nil && (p.Price == nil || *p.Price < *params.MinPrice) {
		return false
	}
	if params.MaxPrice != nil && (p.Price == nil || *p.Price > *params.MaxPrice) {
		return false
	}
	return true
}

// sortProductsBy applies the requested sort; the zero value keeps the
// canonical (category, subcategory, name) order the list already has.
func sortProductsBy(products []domain.Product, sortBy, sortOrder string) {
	var less func(a, b domain.Product) bool
	switch strings.ToLower(sortBy) {
	case "name":
		less = func(a, b domain.Product) bool { return a.Name < b.Name }
	case "price":
		less = func(a, b domain.Product) bool { return priceOrZero(a) < priceOrZero(b) }
	case "created_at":
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		less = func(a, b domain.Product) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return
	}
	desc := strings.EqualFold(sortOrder, "desc")
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func priceOrZero(p domain.Product) float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

func maxProductID(products []domain.Product) int {
	max := 0
	for _, p := range products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}

func maxCategoryID(categories []domain.Category) int {
	max := 0
	for _, c := range categories {
		if c.ID > max {
			max = c.ID
		}
	}
	return max
}

func cloneProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}

func cloneCategories(categories []domain.Category) []domain.Category {
	out := make([]domain.Category, len(categories))
	copy(out, categories)
	return out
}
