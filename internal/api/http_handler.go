package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	validate      *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(cs store.CategoryStorer, ps store.ProductStorer) *HTTPHandler {
	return &HTTPHandler{
		categoryStore: cs,
		productStore:  ps,
		validate:      validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// paginationInfo matches the response envelope shared by the list endpoints.
type paginationInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func parsePagination(r *http.Request) (page, limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page, err = strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return page, limit, (page - 1) * limit
}

func totalPages(totalCount, limit int) int {
	if totalCount <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}

func idParam(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Category Handlers ---

// CategoryInput defines the expected input for creating or updating a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=1024"`
	Icon        string `json:"icon" validate:"omitempty,max=255"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	category := &domain.Category{
		Name:        input.Name,
		Description: input.Description,
		Icon:        input.Icon,
	}
	created, err := h.categoryStore.CreateCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: CreateCategory store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)

	categories, totalCount, err := h.categoryStore.ListCategories(r.Context(), store.ListCategoriesParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: ListCategories store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}

	respondWithJSON(w, http.StatusOK, struct {
		Data       []domain.Category `json:"data"`
		Pagination paginationInfo    `json:"pagination"`
	}{
		Data: categories,
		Pagination: paginationInfo{
			Page:       page,
			Limit:      limit,
			TotalItems: totalCount,
			TotalPages: totalPages(totalCount, limit),
		},
	})
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: GetCategoryByID store operation for ID %d failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	category := &domain.Category{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Icon:        input.Icon,
	}
	updated, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: UpdateCategory store operation for ID %d failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.categoryStore.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: DeleteCategory store operation for ID %d failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Product Handlers ---

// ProductInput defines the expected input for creating or updating a product.
type ProductInput struct {
	Name           string   `json:"name" validate:"required,max=255"`
	Category       string   `json:"category" validate:"omitempty,max=255"`
	Subcategory    string   `json:"subcategory" validate:"omitempty,max=255"`
	Description    string   `json:"description" validate:"omitempty"`
	Price          *float64 `json:"price" validate:"omitempty,gte=0"`
	ImageURL       string   `json:"image_url" validate:"omitempty,url,max=2048"`
	InStock        *bool    `json:"in_stock"`
	Brand          string   `json:"brand" validate:"omitempty,max=255"`
	Series         string   `json:"series" validate:"omitempty,max=255"`
	Material       string   `json:"material" validate:"omitempty,max=255"`
	Features       string   `json:"features" validate:"omitempty"`
	Specifications string   `json:"specifications" validate:"omitempty"`
	Dimensions     string   `json:"dimensions" validate:"omitempty,max=255"`
	Weight         string   `json:"weight" validate:"omitempty,max=255"`
	Color          string   `json:"color" validate:"omitempty,max=255"`
	Model          string   `json:"model" validate:"omitempty,max=255"`
	SKU            string   `json:"sku" validate:"omitempty,max=100"`
	Capacity       string   `json:"capacity" validate:"omitempty,max=255"`
	Variants       string   `json:"variants" validate:"omitempty"`
}

func (input ProductInput) toDomain() domain.Product {
	inStock := true
	if input.InStock != nil {
		inStock = *input.InStock
	}
	return domain.Product{
		Name:           input.Name,
		Category:       input.Category,
		Subcategory:    input.Subcategory,
		Description:    input.Description,
		Price:          input.Price,
		ImageURL:       input.ImageURL,
		InStock:        inStock,
		Brand:          input.Brand,
		Series:         input.Series,
		Material:       input.Material,
		Features:       input.Features,
		Specifications: input.Specifications,
		Dimensions:     input.Dimensions,
		Weight:         input.Weight,
		Color:          input.Color,
		Model:          input.Model,
		SKU:            input.SKU,
		Capacity:       input.Capacity,
		Variants:       input.Variants,
	}
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := input.toDomain()
	created, err := h.productStore.CreateProduct(r.Context(), &product)
	if err != nil {
		log.Printf("ERROR: CreateProduct store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()
	page, limit, offset := parsePagination(r)

	params := store.ListProductsParams{Limit: limit, Offset: offset}

	if q := qParams.Get("q"); q != "" {
		params.SearchQuery = &q
	}
	if category := qParams.Get("category"); category != "" {
		params.Category = &category
	}
	if stockStr := qParams.Get("in_stock"); stockStr != "" {
		b, err := strconv.ParseBool(stockStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid in_stock value: must be true or false")
			return
		}
		params.InStock = &b
	}
	if priceStr := qParams.Get("min_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid min_price format")
			return
		}
		params.MinPrice = &price
	}
	if priceStr := qParams.Get("max_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid max_price format")
			return
		}
		params.MaxPrice = &price
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		respondWithError(w, http.StatusBadRequest, "min_price cannot exceed max_price")
		return
	}

	params.SortBy = qParams.Get("sort_by")
	params.SortOrder = qParams.Get("sort_order")
	switch params.SortBy {
	case "", "name", "price", "created_at", "updated_at":
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid sort_by field. Allowed: name, price, created_at, updated_at")
		return
	}
	if params.SortOrder != "" && !strings.EqualFold(params.SortOrder, "asc") && !strings.EqualFold(params.SortOrder, "desc") {
		respondWithError(w, http.StatusBadRequest, "Invalid sort_order value. Allowed: asc, desc")
		return
	}

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondWithJSON(w, http.StatusOK, struct {
		Data       []domain.Product `json:"data"`
		Pagination paginationInfo   `json:"pagination"`
	}{
		Data: products,
		Pagination: paginationInfo{
			Page:       page,
			Limit:      limit,
			TotalItems: totalCount,
			TotalPages: totalPages(totalCount, limit),
		},
	})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: GetProductByID store operation for ID %d failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := input.toDomain()
	product.ID = id
	updated, err := h.productStore.UpdateProduct(r.Context(), &product)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: UpdateProduct store operation for ID %d failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.productStore.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: DeleteProduct store operation for ID %d failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// ImportProducts replaces the whole product list with the uploaded one.
func (h *HTTPHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var inputs []ProductInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if len(inputs) == 0 {
		respondWithError(w, http.StatusBadRequest, "Import payload contains no products")
		return
	}
	products := make([]domain.Product, 0, len(inputs))
	for i, input := range inputs {
		if err := h.validate.Struct(input); err != nil {
			respondWithError(w, http.StatusBadRequest, "Validation failed for record "+strconv.Itoa(i+1)+": "+err.Error())
			return
		}
		products = append(products, input.toDomain())
	}

	count, err := h.productStore.ImportProducts(r.Context(), products)
	if err != nil {
		log.Printf("ERROR: ImportProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to import products")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"imported": count})
}

// RefreshCatalog re-runs the merge pipeline against the configured supplier
// sources. Per-source failures show up in the response, not as a 5xx.
func (h *HTTPHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	result, err := h.productStore.RefreshCatalog(r.Context())
	if err != nil {
		log.Printf("ERROR: RefreshCatalog store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh catalog")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Post("/", h.CreateCategory)
		r.Get("/", h.ListCategories)
		r.Route("/{categoryId}", func(r chi.Router) {
			r.Get("/", h.GetCategoryByID)
			r.Put("/", h.UpdateCategory)
			r.Delete("/", h.DeleteCategory)
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Post("/import", h.ImportProducts)
		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})

	r.Post("/api/v1/catalog/refresh", h.RefreshCatalog)
}
