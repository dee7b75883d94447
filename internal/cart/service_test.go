package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
)

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
}

func (s *stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindVariantByID(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	if variant, ok := s.variants[id]; ok {
		return variant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(carts).Error)
	require.NoError(t, conn.Exec(items).Error)
	return conn
}

func newCartService(t *testing.T) (Service, *stubCatalog) {
	t.Helper()

	conn := setupCartTestDB(t)
	catalog := &stubCatalog{
		products: map[uuid.UUID]*models.Product{},
		variants: map[uuid.UUID]*models.ProductVariant{},
	}
	svc, err := NewService(NewRepository(conn), catalog, db.NewWithConn(conn))
	require.NoError(t, err)
	return svc, catalog
}

func seedCatalogLine(catalog *stubCatalog) (uuid.UUID, uuid.UUID) {
	productID := uuid.New()
	variantID := uuid.New()
	catalog.products[productID] = &models.Product{ID: productID, Name: "saree"}
	catalog.variants[variantID] = &models.ProductVariant{ID: variantID, ProductID: productID, SKU: "saree-v", PriceCents: 100000}
	return productID, variantID
}

func TestGetAutoCreatesCart(t *testing.T) {
	svc, _ := newCartService(t)
	userID := uuid.New()

	cart, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, cart.ID)
	assert.Empty(t, cart.Items)

	again, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestAddItemIncrementsOnRepeat(t *testing.T) {
	svc, catalog := newCartService(t)
	userID := uuid.New()
	productID, variantID := seedCatalogLine(catalog)

	_, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: productID, VariantID: &variantID, Qty: 1})
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: productID, VariantID: &variantID, Qty: 2})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Qty)
}

func TestAddItemUnknownProductRejected(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Qty: 1})
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeNotFound, storeErr.Code())
}

func TestAddItemVariantFromOtherProductRejected(t *testing.T) {
	svc, catalog := newCartService(t)
	productID, _ := seedCatalogLine(catalog)
	_, otherVariantID := seedCatalogLine(catalog)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: productID, VariantID: &otherVariantID, Qty: 1})
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeValidation, storeErr.Code())
}

func TestRemoveItemScopedToOwnCart(t *testing.T) {
	svc, catalog := newCartService(t)
	owner := uuid.New()
	other := uuid.New()
	productID, variantID := seedCatalogLine(catalog)

	_, err := svc.AddItem(context.Background(), owner, AddItemInput{ProductID: productID, VariantID: &variantID, Qty: 1})
	require.NoError(t, err)

	// The other user has no such line, so the variant id alone is not enough.
	_, err = svc.RemoveItem(context.Background(), other, variantID)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeNotFound, storeErr.Code())

	cart, err := svc.RemoveItem(context.Background(), owner, variantID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearEmptiesCart(t *testing.T) {
	svc, catalog := newCartService(t)
	userID := uuid.New()
	productID, variantID := seedCatalogLine(catalog)

	_, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: productID, VariantID: &variantID, Qty: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), userID))

	cart, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
