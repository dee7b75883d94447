package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/internal/activity"
	"github.com/craftlane/storefront-backend/internal/catalog"
	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
	"github.com/craftlane/storefront-backend/pkg/metrics"
	"github.com/craftlane/storefront-backend/pkg/pagination"
	"github.com/craftlane/storefront-backend/pkg/types"
)

// Service exposes order placement and retrieval.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListAll(ctx context.Context, input ListAllInput) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

// PlaceOrderLine is one requested purchase line. UnitPriceCents is the price
// the storefront displayed; it is checked against the catalog, never trusted.
type PlaceOrderLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Qty            int
	UnitPriceCents *int
}

// PaymentAssertion carries the processor callback fields for online methods.
type PaymentAssertion struct {
	OrderRef   string
	PaymentRef string
	Signature  string
}

// PlaceOrderInput holds the validated checkout payload.
type PlaceOrderInput struct {
	UserID          *uuid.UUID
	GuestEmail      *string
	Lines           []PlaceOrderLine
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
	Payment         *PaymentAssertion
	DiscountCents   int
	CouponCode      *string
	DeliveryCents   int
	DeliveryType    *string
}

// ListAllInput configures the admin order list.
type ListAllInput struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

type verifier interface {
	Verify(ctx context.Context, gatewayName, orderRef, paymentRef, signature string) (bool, error)
}

type activityPublisher interface {
	Publish(ctx context.Context, event activity.OrderEvent)
}

type service struct {
	repo     Repository
	catalog  catalog.Repository
	dbClient *db.Client
	verifier verifier
	feed     activityPublisher
	checkout *metrics.CheckoutMetrics
	log      *logger.Logger
}

// NewService constructs an order service instance. The activity feed and the
// checkout metrics are optional.
func NewService(repo Repository, catalogRepo catalog.Repository, dbClient *db.Client, paymentVerifier verifier, feed activityPublisher, checkout *metrics.CheckoutMetrics, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if paymentVerifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		catalog:  catalogRepo,
		dbClient: dbClient,
		verifier: paymentVerifier,
		feed:     feed,
		checkout: checkout,
		log:      log,
	}, nil
}

// PlaceOrder verifies payment when required, re-prices every line against the
// live catalog, decrements stock, and persists the order with frozen line
// snapshots in one transaction.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if input.UserID == nil && (input.GuestEmail == nil || strings.TrimSpace(*input.GuestEmail) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in or provide guest details")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if input.DiscountCents < 0 || input.DeliveryCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "negative amounts not allowed")
	}
	for i, line := range input.Lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d qty must be positive", i))
		}
	}

	paymentStatus := enums.PaymentStatusPending
	var transactionID *string
	if input.PaymentMethod.IsOnline() {
		if input.Payment == nil || input.Payment.OrderRef == "" || input.Payment.PaymentRef == "" || input.Payment.Signature == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment details required")
		}
		ok, err := s.verifier.Verify(ctx, string(input.PaymentMethod), input.Payment.OrderRef, input.Payment.PaymentRef, input.Payment.Signature)
		if err != nil {
			return nil, err
		}
		if !ok {
			if s.checkout != nil {
				s.checkout.IncVerifyFailure()
			}
			return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment signature mismatch")
		}
		paymentStatus = enums.PaymentStatusSuccess
		ref := input.Payment.PaymentRef
		transactionID = &ref
	}

	order := &models.Order{
		UserID:          input.UserID,
		GuestEmail:      input.GuestEmail,
		DiscountCents:   input.DiscountCents,
		CouponCode:      input.CouponCode,
		DeliveryCents:   input.DeliveryCents,
		DeliveryType:    input.DeliveryType,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   paymentStatus,
		TransactionID:   transactionID,
		Status:          enums.OrderStatusProcessing,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.repo.WithTx(tx)
		txCatalog := s.catalog.WithTx(tx)

		subtotal := 0
		items := make([]models.OrderItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			item, err := s.freezeLine(ctx, txOrders, txCatalog, line)
			if err != nil {
				return err
			}
			subtotal += item.UnitPriceCents * item.Qty
			items = append(items, *item)
		}

		order.SubtotalCents = subtotal
		order.TotalCents = subtotal - order.DiscountCents + order.DeliveryCents
		order.Items = items
		return txOrders.Create(ctx, order)
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
	}

	if s.checkout != nil {
		s.checkout.IncPlaced(string(input.PaymentMethod))
	}
	logCtx := s.log.WithOrderID(ctx, order.ID.String())
	s.log.Info(logCtx, "order placed")

	if s.feed != nil {
		s.feed.Publish(ctx, activity.OrderEvent{
			City:     order.ShippingAddress.City,
			ItemName: order.Items[0].Name,
			PlacedAt: time.Now().UTC(),
		})
	}

	return NewOrderDTO(order), nil
}

// freezeLine re-reads the catalog inside the transaction, checks the client's
// claimed price, decrements stock, and returns the frozen snapshot.
func (s *service) freezeLine(ctx context.Context, txOrders Repository, txCatalog catalog.Repository, line PlaceOrderLine) (*models.OrderItem, error) {
	product, err := txCatalog.FindByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	item := &models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Qty:       line.Qty,
	}

	if line.VariantID != nil {
		variant, err := txCatalog.FindVariantByID(ctx, *line.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
		item.VariantID = &variant.ID
		item.SKU = variant.SKU
		item.UnitPriceCents = variant.PriceCents
		item.Attributes = variant.Attributes.Clone()

		if err := checkClaimedPrice(line.UnitPriceCents, variant.PriceCents); err != nil {
			return nil, err
		}
		affected, err := txOrders.DecrementVariantStock(ctx, variant.ID, line.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
		}
		if affected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", variant.SKU))
		}
		return item, nil
	}

	if product.HasVariants() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant selection required")
	}
	if product.PriceCents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is not purchasable")
	}
	item.SKU = product.SKU
	item.UnitPriceCents = *product.PriceCents

	if err := checkClaimedPrice(line.UnitPriceCents, *product.PriceCents); err != nil {
		return nil, err
	}
	affected, err := txOrders.DecrementProductStock(ctx, product.ID, line.Qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", product.SKU))
	}
	return item, nil
}

func checkClaimedPrice(claimed *int, actual int) error {
	if claimed != nil && *claimed != actual {
		return pkgerrors.New(pkgerrors.CodeConflict, "price changed, refresh your cart")
	}
	return nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *NewOrderDTO(&orders[i]))
	}
	return dtos, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListAll(ctx context.Context, input ListAllInput) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	query := ListOrdersQuery{Limit: input.Limit, Cursor: cursor}
	if input.Status != nil {
		status := string(*input.Status)
		query.Status = &status
	}
	orders, next, err := s.repo.ListAll(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(orders))}
	for i := range orders {
		result.Orders = append(result.Orders, *NewOrderDTO(&orders[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		result.NextCursor = &encoded
	}
	return result, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	affected, err := s.repo.UpdateStatus(ctx, orderID, string(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.loadOrderDTO(ctx, orderID)
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadOrderDTO(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}
