package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaar/internal/auth"
	"bazaar/internal/ratelimiter"
	"bazaar/internal/sku"
	"bazaar/internal/store"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// fixed ids for route tests; path identifiers must be well formed uuids
const (
	testProductID   = "5f3a9c2e-8d41-4c6b-9a7e-1b2c3d4e5f6a"
	testCategoryID  = "0c86e2fa-4d13-4b5e-8a29-7f6e5d4c3b2a"
	testCategoryID2 = "1d97f3ab-5e24-4c6f-9b3a-8a7f6e5d4c3b"
	testMissingID   = "ffffffff-ffff-4fff-8fff-ffffffffffff"
)

// ----- storage mocks -----

type MockUsersStore struct {
	mock.Mock
}

func (m *MockUsersStore) Create(ctx context.Context, user *store.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsersStore) GetByID(ctx context.Context, userID string) (*store.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), args.Error(1)
}

func (m *MockUsersStore) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), args.Error(1)
}

func (m *MockUsersStore) SaveRefreshToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockUsersStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockUsersStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockCategoriesStore struct {
	mock.Mock
}

func (m *MockCategoriesStore) Create(ctx context.Context, category *store.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoriesStore) GetByID(ctx context.Context, categoryID string) (*store.Category, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Category), args.Error(1)
}

func (m *MockCategoriesStore) List(ctx context.Context, limit, offset int) ([]*store.Category, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*store.Category), args.Int(1), args.Error(2)
}

func (m *MockCategoriesStore) Update(ctx context.Context, category *store.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoriesStore) Delete(ctx context.Context, categoryID string) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func (m *MockCategoriesStore) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoriesStore) HasProducts(ctx context.Context, categoryID string) (bool, error) {
	args := m.Called(ctx, categoryID)
	return args.Bool(0), args.Error(1)
}

type MockProductsStore struct {
	mock.Mock
}

func (m *MockProductsStore) Create(ctx context.Context, product *store.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductsStore) GetByID(ctx context.Context, productID string) (*store.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Product), args.Error(1)
}

func (m *MockProductsStore) List(ctx context.Context, filter store.ProductFilter) ([]*store.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*store.Product), args.Int(1), args.Error(2)
}

func (m *MockProductsStore) Newest(ctx context.Context, limit int) ([]*store.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Product), args.Error(1)
}

func (m *MockProductsStore) Update(ctx context.Context, product *store.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductsStore) Delete(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockProductsStore) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockDashboardStore struct {
	mock.Mock
}

func (m *MockDashboardStore) GetStats(ctx context.Context) (*store.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Stats), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(templateFile, username, email string, data any) (int, error) {
	args := m.Called(templateFile, username, email, data)
	return args.Int(0), args.Error(1)
}

// ----- test harness -----

type testStores struct {
	users      *MockUsersStore
	categories *MockCategoriesStore
	products   *MockProductsStore
	dashboard  *MockDashboardStore
}

func newTestApplication(t *testing.T) (*application, *testStores) {
	t.Helper()

	stores := &testStores{
		users:      new(MockUsersStore),
		categories: new(MockCategoriesStore),
		products:   new(MockProductsStore),
		dashboard:  new(MockDashboardStore),
	}

	mailMock := new(MockMailer)
	mailMock.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(200, nil).Maybe()

	skuGen, err := sku.NewGenerator("test-salt")
	if err != nil {
		t.Fatal(err)
	}

	app := &application{
		config: config{
			env: "test",
			auth: authConfig{
				basic: basicConfig{user: "admin", pass: "secret"},
				token: tokenConfig{
					secret:          "access-secret",
					refreshSecret:   "refresh-secret",
					accessTokenExp:  time.Minute * 15,
					refreshTokenExp: time.Hour * 24,
					iss:             "Bazaar",
				},
			},
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		store: store.Storage{
			Users:      stores.users,
			Categories: stores.categories,
			Products:   stores.products,
			Dashboard:  stores.dashboard,
		},
		logger: zap.NewNop().Sugar(),
		mailer: mailMock,
		authenticator: auth.NewJWTAuthenticator(
			"access-secret", "refresh-secret",
			"Bazaar", "Bazaar",
			time.Minute*15, time.Hour*24,
		),
		rateLimiter: ratelimiter.NewFixedWindowLimiter(100, time.Second),
		sku:         skuGen,
	}

	return app, stores
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func tokenFor(t *testing.T, app *application, userID, email, role string) string {
	t.Helper()
	access, _, err := app.authenticator.GenerateTokens(userID, email, role)
	if err != nil {
		t.Fatal(err)
	}
	return access
}
