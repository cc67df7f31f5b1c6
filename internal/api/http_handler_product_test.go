package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductStorer) ImportProducts(ctx context.Context, products []domain.Product) (int, error) {
	args := m.Called(ctx, products)
	return args.Int(0), args.Error(1)
}

func (m *MockProductStorer) RefreshCatalog(ctx context.Context) (*store.RefreshResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RefreshResult), args.Error(1)
}

func TestHTTPHandler_CreateProduct_Success(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	inputPayload := ProductInput{
		Name:     "Astral Gold Pen",
		Category: "Metal Pen",
		Price:    PtrTo(199.5),
		Brand:    "Dyna",
	}
	expectedCreated := &domain.Product{
		ID:       1,
		Name:     inputPayload.Name,
		Category: inputPayload.Category,
		Price:    inputPayload.Price,
		InStock:  true,
		Brand:    inputPayload.Brand,
	}

	mockProdStore.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		// in_stock omitted in the payload defaults to true
		return p.Name == inputPayload.Name && p.InStock
	})).Return(expectedCreated, nil).Once()

	reqBody, _ := json.Marshal(inputPayload)
	res, err := http.Post(server.URL+"/api/v1/products", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)

	var got domain.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, expectedCreated.ID, got.ID)
	assert.Equal(t, expectedCreated.Name, got.Name)
	require.NotNil(t, got.Price)
	assert.Equal(t, 199.5, *got.Price)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_CreateProduct_ValidationError(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	tests := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"category":"Metal Pen"}`},
		{"negative price", `{"name":"Pen","price":-5}`},
		{"bad image url", `{"name":"Pen","image_url":"not a url"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := http.Post(server.URL+"/api/v1/products", "application/json", bytes.NewBufferString(tc.payload))
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		})
	}

	mockProdStore.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestHTTPHandler_GetProductByID_NotFound(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	mockProdStore.On("GetProductByID", mock.Anything, 404).
		Return(nil, fmt.Errorf("%w: id 404", store.ErrProductNotFound)).Once()

	res, err := http.Get(server.URL + "/api/v1/products/404")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ListProducts_FilterParams(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	mockProdStore.On("ListProducts", mock.Anything, mock.MatchedBy(func(p store.ListProductsParams) bool {
		return p.SearchQuery != nil && *p.SearchQuery == "pen" &&
			p.Category != nil && *p.Category == "Metal Pen" &&
			p.InStock != nil && *p.InStock &&
			p.MinPrice != nil && *p.MinPrice == 10 &&
			p.MaxPrice != nil && *p.MaxPrice == 300 &&
			p.SortBy == "price" && p.SortOrder == "desc" &&
			p.Limit == 20 && p.Offset == 0
	})).Return([]domain.Product{{ID: 1, Name: "Astral Gold Pen"}}, 1, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products?q=pen&category=Metal+Pen&in_stock=true&min_price=10&max_price=300&sort_by=price&sort_order=desc")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Data []domain.Product `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Data, 1)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ListProducts_BadQueryParams(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	tests := []struct {
		name  string
		query string
	}{
		{"bad in_stock", "?in_stock=maybe"},
		{"bad min_price", "?min_price=abc"},
		{"negative max_price", "?max_price=-1"},
		{"min above max", "?min_price=100&max_price=10"},
		{"unknown sort field", "?sort_by=weight"},
		{"unknown sort order", "?sort_order=sideways"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := http.Get(server.URL + "/api/v1/products" + tc.query)
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		})
	}

	mockProdStore.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything)
}

func TestHTTPHandler_ListProducts_EmptyResultIsNotNull(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	mockProdStore.On("ListProducts", mock.Anything, mock.Anything).Return(nil, 0, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.JSONEq(t, `[]`, string(body["data"]), "data is an empty array, not null")

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_UpdateProduct_Success(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	updated := &domain.Product{ID: 5, Name: "Renamed Pen", InStock: false}
	mockProdStore.On("UpdateProduct", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.ID == 5 && p.Name == "Renamed Pen" && !p.InStock
	})).Return(updated, nil).Once()

	reqBody, _ := json.Marshal(ProductInput{Name: "Renamed Pen", InStock: PtrTo(false)})
	req, _ := http.NewRequest(http.MethodPut, server.URL+"/api/v1/products/5", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_DeleteProduct_NotFound(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	mockProdStore.On("DeleteProduct", mock.Anything, 12).
		Return(fmt.Errorf("%w: id 12", store.ErrProductNotFound)).Once()

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/products/12", nil)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ImportProducts_Success(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	mockProdStore.On("ImportProducts", mock.Anything, mock.MatchedBy(func(products []domain.Product) bool {
		return len(products) == 2 && products[0].Name == "Pen A" && products[1].Name == "Pen B"
	})).Return(2, nil).Once()

	payload := `[{"name":"Pen A","category":"Metal Pen"},{"name":"Pen B"}]`
	res, err := http.Post(server.URL+"/api/v1/products/import", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]int
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 2, body["imported"])

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ImportProducts_BadRecord(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	payload := `[{"name":"Pen A"},{"category":"nameless"}]`
	res, err := http.Post(server.URL+"/api/v1/products/import", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "record 2")

	mockProdStore.AssertNotCalled(t, "ImportProducts", mock.Anything, mock.Anything)
}

func TestHTTPHandler_ImportProducts_EmptyPayload(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	res, err := http.Post(server.URL+"/api/v1/products/import", "application/json", bytes.NewBufferString(`[]`))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	mockProdStore.AssertNotCalled(t, "ImportProducts", mock.Anything, mock.Anything)
}

func TestHTTPHandler_RefreshCatalog(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	result := &store.RefreshResult{
		RunID:    "3b2c1a90-0000-0000-0000-000000000000",
		Products: 42,
		Sources:  map[string]int{"pens.json": 42},
		Errors:   []string{"source bad.json: no such file"},
	}
	mockProdStore.On("RefreshCatalog", mock.Anything).Return(result, nil).Once()

	res, err := http.Post(server.URL+"/api/v1/catalog/refresh", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var got store.RefreshResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, result.RunID, got.RunID)
	assert.Equal(t, 42, got.Products)
	assert.Len(t, got.Errors, 1)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_RefreshCatalog_StoreError(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore)
	defer server.Close()

	mockProdStore.On("RefreshCatalog", mock.Anything).
		Return(nil, fmt.Errorf("store: persist products: disk full")).Once()

	res, err := http.Post(server.URL+"/api/v1/catalog/refresh", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	mockProdStore.AssertExpectations(t)
}
