package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/types"
)

// OrderItem is a frozen copy of a purchased line. ProductID/VariantID are kept
// for traceability only; name, price, and attributes are snapshots immune to
// later catalog edits.
type OrderItem struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID          `gorm:"column:variant_id;type:uuid"`
	Name           string              `gorm:"column:name;not null"`
	SKU            string              `gorm:"column:sku;not null"`
	Qty            int                 `gorm:"column:qty;not null"`
	UnitPriceCents int                 `gorm:"column:unit_price_cents;not null"`
	Attributes     types.AttributeList `gorm:"column:attributes;type:jsonb;serializer:json"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
