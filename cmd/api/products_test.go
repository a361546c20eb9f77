package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"bazaar/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListProductsHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	mux := app.mount()

	t.Run("returns products with pagination meta", func(t *testing.T) {
		products := []*store.Product{
			{ID: "p1", Name: "Desk Lamp", Price: decimal.RequireFromString("29.99"), Stock: 4},
			{ID: "p2", Name: "Floor Lamp", Price: decimal.RequireFromString("89.00"), Stock: 12},
		}
		stores.products.On("List", mock.Anything, mock.MatchedBy(func(f store.ProductFilter) bool {
			return f.Search == "lamp" && f.Pagination.Limit == 5 && f.Pagination.Page == 2
		})).Return(products, 12, nil).Once()

		req := httptest.NewRequest("GET", "/v1/products?search=lamp&limit=5&page=2", nil)
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var envelope struct {
			Data ProductListResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.Len(t, envelope.Data.Products, 2)
		assert.Equal(t, 12, envelope.Data.Pagination.Total)
		assert.Equal(t, 3, envelope.Data.Pagination.TotalPages)
		assert.True(t, envelope.Data.Pagination.HasNext)
		assert.True(t, envelope.Data.Pagination.HasPrev)
	})

	t.Run("page past the end is an empty list, not an error", func(t *testing.T) {
		stores.products.On("List", mock.Anything, mock.Anything).Return([]*store.Product{}, 3, nil).Once()

		req := httptest.NewRequest("GET", "/v1/products?page=9", nil)
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var envelope struct {
			Data ProductListResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.NotNil(t, envelope.Data.Products)
		assert.Empty(t, envelope.Data.Products)
		assert.False(t, envelope.Data.Pagination.HasNext)
	})

	t.Run("invalid filter answers 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/products?sort_by=nonsense", nil)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetProductHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	mux := app.mount()

	t.Run("returns the product", func(t *testing.T) {
		product := &store.Product{
			ID:           testProductID,
			Name:         "Desk Lamp",
			SKU:          "BZR-ABC23456",
			Price:        decimal.RequireFromString("29.99"),
			CategoryID:   testCategoryID,
			CategoryName: "Lighting",
		}
		stores.products.On("GetByID", mock.Anything, testProductID).Return(product, nil).Once()

		req := httptest.NewRequest("GET", "/v1/products/"+testProductID, nil)
		rr := executeRequest(req, mux)

		require.Equal(t, http.StatusOK, rr.Code)

		var envelope struct {
			Data store.Product `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.Equal(t, "Desk Lamp", envelope.Data.Name)
		assert.Equal(t, "Lighting", envelope.Data.CategoryName)
	})

	t.Run("unknown product answers 404", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testMissingID).Return(nil, store.ErrProductNotFound).Once()

		req := httptest.NewRequest("GET", "/v1/products/"+testMissingID, nil)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed id answers 400 without touching the store", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/products/not-a-uuid", nil)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		stores.products.AssertNotCalled(t, "GetByID", mock.Anything, "not-a-uuid")
	})
}

func TestNewestProductsHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	mux := app.mount()

	t.Run("uses the default limit", func(t *testing.T) {
		stores.products.On("Newest", mock.Anything, defaultNewestLimit).Return([]*store.Product{}, nil).Once()

		req := httptest.NewRequest("GET", "/v1/products/newest", nil)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusOK, rr.Code)
		stores.products.AssertExpectations(t)
	})

	t.Run("honors an explicit limit", func(t *testing.T) {
		stores.products.On("Newest", mock.Anything, 3).Return([]*store.Product{}, nil).Once()

		req := httptest.NewRequest("GET", "/v1/products/newest?limit=3", nil)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/products/newest?limit=0", nil)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteProductHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	mux := app.mount()
	adminToken := "Bearer " + tokenFor(t, app, "admin-1", "admin@bazaar.dev", "admin")

	t.Run("unknown product answers 404", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testMissingID).Return(nil, store.ErrProductNotFound).Once()

		req := httptest.NewRequest("DELETE", "/v1/admin/products/"+testMissingID, nil)
		req.Header.Set("Authorization", adminToken)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("deletes an existing product", func(t *testing.T) {
		// no image URL, so no cloudinary cleanup is attempted
		product := &store.Product{ID: testProductID, Name: "Desk Lamp"}
		stores.products.On("GetByID", mock.Anything, testProductID).Return(product, nil).Once()
		stores.products.On("Delete", mock.Anything, testProductID).Return(nil).Once()

		req := httptest.NewRequest("DELETE", "/v1/admin/products/"+testProductID, nil)
		req.Header.Set("Authorization", adminToken)
		rr := executeRequest(req, mux)

		assert.Equal(t, http.StatusOK, rr.Code)
		stores.products.AssertExpectations(t)
	})
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestCreateProductHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	mux := app.mount()
	adminToken := "Bearer " + tokenFor(t, app, "admin-1", "admin@bazaar.dev", "admin")

	postForm := func(t *testing.T, fields map[string]string) *httptest.ResponseRecorder {
		t.Helper()
		body, contentType := multipartBody(t, fields)
		req := httptest.NewRequest("POST", "/v1/admin/products", body)
		req.Header.Set("Authorization", adminToken)
		req.Header.Set("Content-Type", contentType)
		return executeRequest(req, mux)
	}

	t.Run("rejects a malformed price", func(t *testing.T) {
		rr := postForm(t, map[string]string{
			"name":        "Desk Lamp",
			"price":       "free",
			"stock":       "3",
			"category_id": testCategoryID,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects negative stock", func(t *testing.T) {
		rr := postForm(t, map[string]string{
			"name":        "Desk Lamp",
			"price":       "29.99",
			"stock":       "-1",
			"category_id": testCategoryID,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a malformed category id", func(t *testing.T) {
		rr := postForm(t, map[string]string{
			"name":        "Desk Lamp",
			"price":       "29.99",
			"stock":       "3",
			"category_id": "not-a-uuid",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		stores.categories.AssertNotCalled(t, "GetByID", mock.Anything, "not-a-uuid")
	})

	t.Run("unknown category answers 400", func(t *testing.T) {
		stores.categories.On("GetByID", mock.Anything, testMissingID).Return(nil, store.ErrCategoryNotFound).Once()

		rr := postForm(t, map[string]string{
			"name":        "Desk Lamp",
			"price":       "29.99",
			"stock":       "3",
			"category_id": testMissingID,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("duplicate name answers 409", func(t *testing.T) {
		category := &store.Category{ID: testCategoryID, Name: "Lighting"}
		stores.categories.On("GetByID", mock.Anything, testCategoryID).Return(category, nil).Once()
		stores.products.On("ExistsByName", mock.Anything, "Desk Lamp", "").Return(true, nil).Once()

		rr := postForm(t, map[string]string{
			"name":        "Desk Lamp",
			"price":       "29.99",
			"stock":       "3",
			"category_id": testCategoryID,
		})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing image answers 400", func(t *testing.T) {
		category := &store.Category{ID: testCategoryID, Name: "Lighting"}
		stores.categories.On("GetByID", mock.Anything, testCategoryID).Return(category, nil).Once()
		stores.products.On("ExistsByName", mock.Anything, "Desk Lamp", "").Return(false, nil).Once()

		rr := postForm(t, map[string]string{
			"name":        "Desk Lamp",
			"price":       "29.99",
			"stock":       "3",
			"category_id": testCategoryID,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		stores.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUpdateProductHandler(t *testing.T) {
	app, stores := newTestApplication(t)
	mux := app.mount()
	adminToken := "Bearer " + tokenFor(t, app, "admin-1", "admin@bazaar.dev", "admin")

	patchForm := func(t *testing.T, id string, fields map[string]string) *httptest.ResponseRecorder {
		t.Helper()
		body, contentType := multipartBody(t, fields)
		req := httptest.NewRequest("PATCH", "/v1/admin/products/"+id, body)
		req.Header.Set("Authorization", adminToken)
		req.Header.Set("Content-Type", contentType)
		return executeRequest(req, mux)
	}

	// a fresh row per subtest; the handler mutates the struct it loads
	freshProduct := func() *store.Product {
		return &store.Product{
			ID:         testProductID,
			Name:       "Desk Lamp",
			SKU:        "BZR-ABC23456",
			Price:      decimal.RequireFromString("29.99"),
			Stock:      4,
			CategoryID: testCategoryID,
		}
	}

	t.Run("malformed id answers 400", func(t *testing.T) {
		rr := patchForm(t, "not-a-uuid", map[string]string{"stock": "9"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown product answers 404", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testMissingID).Return(nil, store.ErrProductNotFound).Once()

		rr := patchForm(t, testMissingID, map[string]string{"stock": "9"})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("name collision answers 409", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testProductID).Return(freshProduct(), nil).Once()
		stores.products.On("ExistsByName", mock.Anything, "Floor Lamp", testProductID).Return(true, nil).Once()

		rr := patchForm(t, testProductID, map[string]string{"name": "Floor Lamp"})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("rejects a malformed price", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testProductID).Return(freshProduct(), nil).Once()

		rr := patchForm(t, testProductID, map[string]string{"price": "free"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown category answers 400", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testProductID).Return(freshProduct(), nil).Once()
		stores.categories.On("GetByID", mock.Anything, testCategoryID2).Return(nil, store.ErrCategoryNotFound).Once()

		rr := patchForm(t, testProductID, map[string]string{"category_id": testCategoryID2})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("updates fields without an image", func(t *testing.T) {
		stores.products.On("GetByID", mock.Anything, testProductID).Return(freshProduct(), nil).Once()
		stores.products.On("Update", mock.Anything, mock.MatchedBy(func(p *store.Product) bool {
			return p.ID == testProductID && p.Stock == 9 && p.Name == "Desk Lamp"
		})).Return(nil).Once()

		rr := patchForm(t, testProductID, map[string]string{"stock": "9"})

		assert.Equal(t, http.StatusOK, rr.Code)
		stores.products.AssertExpectations(t)
	})
}
