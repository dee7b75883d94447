package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/craftlane/storefront-backend/internal/activity"
	authsvc "github.com/craftlane/storefront-backend/internal/auth"
	cartsvc "github.com/craftlane/storefront-backend/internal/cart"
	"github.com/craftlane/storefront-backend/internal/catalog"
	"github.com/craftlane/storefront-backend/internal/categories"
	"github.com/craftlane/storefront-backend/internal/orders"
	"github.com/craftlane/storefront-backend/internal/payments"
	pkgAuth "github.com/craftlane/storefront-backend/pkg/auth"
	"github.com/craftlane/storefront-backend/pkg/config"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
)

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterInput) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}

func (stubAuthService) Login(context.Context, authsvc.LoginInput) (*authsvc.AuthResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

type stubCatalogService struct{}

func (stubCatalogService) CreateProduct(context.Context, catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) UpdateProduct(context.Context, uuid.UUID, catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) DeleteProduct(context.Context, uuid.UUID) error {
	return nil
}

func (stubCatalogService) GetProduct(context.Context, uuid.UUID) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) ListProducts(context.Context, catalog.ListProductsInput) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{Products: []catalog.ProductDTO{}}, nil
}

type stubCategoryService struct{}

func (stubCategoryService) Create(context.Context, categories.CreateCategoryInput) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{}, nil
}

func (stubCategoryService) List(context.Context) ([]categories.CategoryDTO, error) {
	return nil, nil
}

func (stubCategoryService) Delete(context.Context, uuid.UUID) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Get(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) AddItem(context.Context, uuid.UUID, cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) Clear(context.Context, uuid.UUID) error {
	return nil
}

type stubOrderService struct{}

func (stubOrderService) PlaceOrder(context.Context, orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) ListMine(context.Context, uuid.UUID) ([]orders.OrderDTO, error) {
	return nil, nil
}

func (stubOrderService) GetForUser(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) ListAll(context.Context, orders.ListAllInput) (*orders.OrderListResult, error) {
	return &orders.OrderListResult{}, nil
}

func (stubOrderService) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) InitiateIntent(context.Context, uuid.UUID, decimal.Decimal) (*payments.IntentResult, error) {
	return &payments.IntentResult{}, nil
}

func (stubPaymentService) Verify(context.Context, string, string, string, string) (bool, error) {
	return true, nil
}

func (stubPaymentService) ListGateways(context.Context) ([]payments.GatewayDTO, error) {
	return nil, nil
}

func (stubPaymentService) UpdateGateway(context.Context, uuid.UUID, payments.UpdateGatewayInput) (*payments.GatewayDTO, error) {
	return &payments.GatewayDTO{}, nil
}

type noopFeedStore struct{}

func (noopFeedStore) PushCapped(context.Context, string, any, int64) error {
	return nil
}

func (noopFeedStore) ListRange(context.Context, string, int64, int64) ([]string, error) {
	return nil, nil
}

func (noopFeedStore) ActivityFeedKey() string {
	return "test:activity"
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "craftlane-test", ExpirationMinutes: 15}
	cfg.Activity.FeedSize = 10

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})

	feed, err := activity.NewService(noopFeedStore{}, cfg.Activity, logg)
	require.NoError(t, err)

	return NewRouter(Deps{
		Config:     cfg,
		Logger:     logg,
		Auth:       stubAuthService{},
		Catalog:    stubCatalogService{},
		Categories: stubCategoryService{},
		Cart:       stubCartService{},
		Orders:     stubOrderService{},
		Payments:   stubPaymentService{},
		Activity:   feed,
	})
}

func mintRouterToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	cfg := config.JWTConfig{Secret: "router-test-secret", Issuer: "craftlane-test", ExpirationMinutes: 15}
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestRouterPublicRoutes(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health/live", "/api/v1/products", "/api/v1/categories", "/api/v1/activity/recent"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterCartRequiresAuth(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+mintRouterToken(t, enums.UserRoleCustomer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAdminRequiresAdminRole(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintRouterToken(t, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintRouterToken(t, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAdminListHiddenFromAnonymous(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/gateways", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
