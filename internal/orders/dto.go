package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	"github.com/craftlane/storefront-backend/pkg/types"
)

// OrderDTO is the API shape of a placed order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          *uuid.UUID          `json:"user_id,omitempty"`
	GuestEmail      *string             `json:"guest_email,omitempty"`
	SubtotalCents   int                 `json:"subtotal_cents"`
	DiscountCents   int                 `json:"discount_cents"`
	CouponCode      *string             `json:"coupon_code,omitempty"`
	DeliveryCents   int                 `json:"delivery_cents"`
	DeliveryType    *string             `json:"delivery_type,omitempty"`
	TotalCents      int                 `json:"total_cents"`
	ShippingAddress types.Address       `json:"shipping_address"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	TransactionID   *string             `json:"transaction_id,omitempty"`
	Status          enums.OrderStatus   `json:"status"`
	Items           []OrderItemDTO      `json:"items"`
	PlacedAt        time.Time           `json:"placed_at"`
}

// OrderItemDTO is one frozen order line.
type OrderItemDTO struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      uuid.UUID           `json:"product_id"`
	VariantID      *uuid.UUID          `json:"variant_id,omitempty"`
	Name           string              `json:"name"`
	SKU            string              `json:"sku"`
	Qty            int                 `json:"qty"`
	UnitPriceCents int                 `json:"unit_price_cents"`
	Attributes     types.AttributeList `json:"attributes,omitempty"`
}

// OrderListResult pairs a page of orders with the cursor for the next one.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps an order row onto its API shape.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		GuestEmail:      order.GuestEmail,
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		CouponCode:      order.CouponCode,
		DeliveryCents:   order.DeliveryCents,
		DeliveryType:    order.DeliveryType,
		TotalCents:      order.TotalCents,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		TransactionID:   order.TransactionID,
		Status:          order.Status,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		PlacedAt:        order.PlacedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			SKU:            item.SKU,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			Attributes:     item.Attributes,
		})
	}
	return dto
}
