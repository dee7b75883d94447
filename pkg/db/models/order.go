package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/enums"
	"github.com/craftlane/storefront-backend/pkg/types"
)

// Order is created exactly once at placement and never mutated afterwards
// except for fulfilment Status transitions. The shipping address and all line
// items are snapshots, not live references.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	GuestEmail      *string             `gorm:"column:guest_email"`
	SubtotalCents   int                 `gorm:"column:subtotal_cents;not null"`
	DiscountCents   int                 `gorm:"column:discount_cents;not null;default:0"`
	CouponCode      *string             `gorm:"column:coupon_code"`
	DeliveryCents   int                 `gorm:"column:delivery_cents;not null;default:0"`
	DeliveryType    *string             `gorm:"column:delivery_type"`
	TotalCents      int                 `gorm:"column:total_cents;not null"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	TransactionID   *string             `gorm:"column:transaction_id"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'processing'"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt        time.Time           `gorm:"column:placed_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
