package orders

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/internal/activity"
	"github.com/craftlane/storefront-backend/internal/catalog"
	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
	"github.com/craftlane/storefront-backend/pkg/types"
)

type stubVerifier struct {
	ok          bool
	err         error
	gotGateway  string
	gotOrderRef string
	calls       int
}

func (s *stubVerifier) Verify(_ context.Context, gatewayName, orderRef, _, _ string) (bool, error) {
	s.calls++
	s.gotGateway = gatewayName
	s.gotOrderRef = orderRef
	return s.ok, s.err
}

type capturedFeed struct {
	events []activity.OrderEvent
}

func (c *capturedFeed) Publish(_ context.Context, event activity.OrderEvent) {
	c.events = append(c.events, event)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  mrp_cents INTEGER NOT NULL,
  price_cents INTEGER,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  tags TEXT,
  category TEXT NOT NULL,
  sub_category TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  price_cents INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  attributes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  guest_email TEXT,
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  coupon_code TEXT,
  delivery_cents INTEGER NOT NULL DEFAULT 0,
  delivery_type TEXT,
  total_cents INTEGER NOT NULL,
  shipping_address TEXT,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  transaction_id TEXT,
  status TEXT NOT NULL DEFAULT 'processing',
  placed_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  name TEXT NOT NULL,
  sku TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  attributes TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type orderFixture struct {
	svc       Service
	conn      *gorm.DB
	verifier  *stubVerifier
	feed      *capturedFeed
	repo      Repository
	catalog   catalog.Repository
	productID uuid.UUID
	variantID uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	verifier := &stubVerifier{ok: true}
	feed := &capturedFeed{}
	log := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})

	svc, err := NewService(repo, catalogRepo, db.NewWithConn(conn), verifier, feed, nil, log)
	require.NoError(t, err)

	product := &models.Product{
		ID:       uuid.New(),
		Name:     "banarasi saree",
		SKU:      "banarasi-1",
		MRPCents: 300000,
		Category: "Sarees",
		Status:   enums.ProductStatusPublished,
	}
	require.NoError(t, conn.Omit("Variants").Create(product).Error)

	variant := &models.ProductVariant{
		ID:         uuid.New(),
		ProductID:  product.ID,
		SKU:        "banarasi-1-red",
		PriceCents: 250000,
		StockQty:   5,
		Attributes: types.AttributeList{{Name: "Color", Value: "Red"}},
	}
	require.NoError(t, conn.Create(variant).Error)

	return &orderFixture{
		svc:       svc,
		conn:      conn,
		verifier:  verifier,
		feed:      feed,
		repo:      repo,
		catalog:   catalogRepo,
		productID: product.ID,
		variantID: variant.ID,
	}
}

func shippingAddress() types.Address {
	return types.Address{
		FullName:   "Asha Rao",
		Phone:      "9000000000",
		Line1:      "12 MG Road",
		City:       "Jaipur",
		State:      "RJ",
		PostalCode: "302001",
		Country:    "IN",
	}
}

func (f *orderFixture) baseInput(userID *uuid.UUID) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:          userID,
		Lines:           []PlaceOrderLine{{ProductID: f.productID, VariantID: &f.variantID, Qty: 2}},
		ShippingAddress: shippingAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
	}
}

func TestPlaceOrderCODPendingWithoutTransaction(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	order, err := f.svc.PlaceOrder(context.Background(), f.baseInput(&userID))
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Nil(t, order.TransactionID)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, 500000, order.SubtotalCents)
	assert.Equal(t, 500000, order.TotalCents)
	assert.Zero(t, f.verifier.calls)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "banarasi-1-red", order.Items[0].SKU)
}

func TestPlaceOrderRazorpayValidSignature(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	input := f.baseInput(&userID)
	input.PaymentMethod = enums.PaymentMethodRazorpay
	input.Payment = &PaymentAssertion{OrderRef: "order_abc", PaymentRef: "pay_def", Signature: "sig"}

	order, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusSuccess, order.PaymentStatus)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "pay_def", *order.TransactionID)
	assert.Equal(t, "razorpay", f.verifier.gotGateway)
}

func TestPlaceOrderRazorpayInvalidSignaturePersistsNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.verifier.ok = false
	userID := uuid.New()

	input := f.baseInput(&userID)
	input.PaymentMethod = enums.PaymentMethodRazorpay
	input.Payment = &PaymentAssertion{OrderRef: "order_abc", PaymentRef: "pay_def", Signature: "bad"}

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodePaymentVerification, storeErr.Code())

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	variant, err := f.catalog.FindVariantByID(context.Background(), f.variantID)
	require.NoError(t, err)
	assert.Equal(t, 5, variant.StockQty)
}

func TestPlaceOrderOnlineMissingPaymentDetails(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	input := f.baseInput(&userID)
	input.PaymentMethod = enums.PaymentMethodRazorpay

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeValidation, storeErr.Code())
	assert.Contains(t, storeErr.Message(), "payment details required")
}

func TestPlaceOrderRequiresActorOrGuest(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.baseInput(nil))
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, storeErr.Code())
}

func TestPlaceOrderGuestEmailAccepted(t *testing.T) {
	f := newOrderFixture(t)

	input := f.baseInput(nil)
	guest := "guest@example.com"
	input.GuestEmail = &guest

	order, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	require.NotNil(t, order.GuestEmail)
	assert.Equal(t, guest, *order.GuestEmail)
}

func TestPlaceOrderClaimedPriceMismatchConflicts(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	stale := 200000
	input := f.baseInput(&userID)
	input.Lines[0].UnitPriceCents = &stale

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeConflict, storeErr.Code())
	assert.Contains(t, storeErr.Message(), "price changed")
}

func TestPlaceOrderDecrementsStock(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	_, err := f.svc.PlaceOrder(context.Background(), f.baseInput(&userID))
	require.NoError(t, err)

	variant, err := f.catalog.FindVariantByID(context.Background(), f.variantID)
	require.NoError(t, err)
	assert.Equal(t, 3, variant.StockQty)
}

func TestPlaceOrderInsufficientStockConflicts(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	input := f.baseInput(&userID)
	input.Lines[0].Qty = 6

	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeConflict, storeErr.Code())
	assert.Contains(t, storeErr.Message(), "insufficient stock")

	variant, err := f.catalog.FindVariantByID(context.Background(), f.variantID)
	require.NoError(t, err)
	assert.Equal(t, 5, variant.StockQty)
}

func TestPlaceOrderTotalsUseServerSubtotal(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	input := f.baseInput(&userID)
	input.DiscountCents = 50000
	input.DeliveryCents = 9900
	coupon := "FESTIVE10"
	input.CouponCode = &coupon

	order, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 500000, order.SubtotalCents)
	assert.Equal(t, 500000-50000+9900, order.TotalCents)
}

func TestPlaceOrderPublishesActivityEvent(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	_, err := f.svc.PlaceOrder(context.Background(), f.baseInput(&userID))
	require.NoError(t, err)

	require.Len(t, f.feed.events, 1)
	assert.Equal(t, "Jaipur", f.feed.events[0].City)
	assert.Equal(t, "banarasi saree", f.feed.events[0].ItemName)
}

func TestGetForUserScopesToOwner(t *testing.T) {
	f := newOrderFixture(t)
	owner := uuid.New()

	placed, err := f.svc.PlaceOrder(context.Background(), f.baseInput(&owner))
	require.NoError(t, err)

	_, err = f.svc.GetForUser(context.Background(), uuid.New(), placed.ID)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeNotFound, storeErr.Code())

	mine, err := f.svc.GetForUser(context.Background(), owner, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, mine.ID)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newOrderFixture(t)
	userID := uuid.New()

	placed, err := f.svc.PlaceOrder(context.Background(), f.baseInput(&userID))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), placed.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	_, err = f.svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusShipped)
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeNotFound, storeErr.Code())
}
