package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
)

func newCatalogService(t *testing.T) (Service, Repository) {
	t.Helper()

	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewWithConn(conn))
	require.NoError(t, err)
	return svc, repo
}

func intPtr(v int) *int { return &v }

func TestCreateProductWithoutVariantsRequiresPrice(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "silk stole",
		SKU:      "stole-1",
		MRPCents: 80000,
		Category: "Stoles",
	})
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeValidation, storeErr.Code())
}

func TestCreateProductVariantMissingSKURejected(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "silk stole",
		SKU:      "stole-2",
		MRPCents: 80000,
		Category: "Stoles",
		Variants: []VariantInput{{SKU: "", PriceCents: 70000}},
	})
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeValidation, storeErr.Code())
	assert.Contains(t, storeErr.Message(), "missing sku")
}

func TestCreateProductWithVariants(t *testing.T) {
	svc, _ := newCatalogService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "banarasi saree",
		SKU:      "banarasi-1",
		MRPCents: 300000,
		Category: "Sarees",
		Status:   enums.ProductStatusPublished,
		Variants: []VariantInput{
			{SKU: "banarasi-1-red", PriceCents: 250000, StockQty: 4},
			{SKU: "banarasi-1-blue", PriceCents: 255000, StockQty: 2},
		},
	})
	require.NoError(t, err)
	assert.Len(t, dto.Variants, 2)
	assert.Equal(t, enums.ProductStatusPublished, dto.Status)
}

func TestUpdateProductNilVariantsUntouched(t *testing.T) {
	svc, repo := newCatalogService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "chanderi saree",
		SKU:      "chanderi-1",
		MRPCents: 150000,
		Category: "Sarees",
		Variants: []VariantInput{{SKU: "chanderi-1-s", PriceCents: 120000, StockQty: 3}},
	})
	require.NoError(t, err)

	name := "chanderi saree classic"
	updated, err := svc.UpdateProduct(context.Background(), dto.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Len(t, updated.Variants, 1)

	stored, err := repo.ListVariants(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestUpdateProductEmptyVariantsWipesAndRequiresPrice(t *testing.T) {
	svc, _ := newCatalogService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "tussar saree",
		SKU:      "tussar-1",
		MRPCents: 150000,
		Category: "Sarees",
		Variants: []VariantInput{{SKU: "tussar-1-s", PriceCents: 110000}},
	})
	require.NoError(t, err)

	empty := []VariantInput{}
	_, err = svc.UpdateProduct(context.Background(), dto.ID, UpdateProductInput{Variants: &empty})
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeValidation, storeErr.Code())

	updated, err := svc.UpdateProduct(context.Background(), dto.ID, UpdateProductInput{
		PriceCents: intPtr(110000),
		Variants:   &empty,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Variants)
	require.NotNil(t, updated.PriceCents)
	assert.Equal(t, 110000, *updated.PriceCents)
}

func TestDeleteProductRemovesVariants(t *testing.T) {
	svc, repo := newCatalogService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "paithani saree",
		SKU:      "paithani-1",
		MRPCents: 400000,
		Category: "Sarees",
		Variants: []VariantInput{{SKU: "paithani-1-g", PriceCents: 380000}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(context.Background(), dto.ID))

	_, err = svc.GetProduct(context.Background(), dto.ID)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeNotFound, storeErr.Code())

	variants, err := repo.ListVariants(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestListProductsFiltersByStatus(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:       "draft saree",
		SKU:        "draft-1",
		MRPCents:   100000,
		PriceCents: intPtr(90000),
		Category:   "Sarees",
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), CreateProductInput{
		Name:       "live saree",
		SKU:        "live-1",
		MRPCents:   100000,
		PriceCents: intPtr(95000),
		Category:   "Sarees",
		Status:     enums.ProductStatusPublished,
	})
	require.NoError(t, err)

	published := enums.ProductStatusPublished
	result, err := svc.ListProducts(context.Background(), ListProductsInput{Status: &published})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "live saree", result.Products[0].Name)
	assert.Nil(t, result.NextCursor)
}
