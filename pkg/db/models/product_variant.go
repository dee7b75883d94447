package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/types"
)

// ProductVariant is a purchasable SKU-level specialization of a product, e.g.
// a size/color combination with its own price and stock.
type ProductVariant struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        string              `gorm:"column:sku;uniqueIndex;not null"`
	PriceCents int                 `gorm:"column:price_cents;not null"`
	StockQty   int                 `gorm:"column:stock_qty;not null;default:0"`
	Attributes types.AttributeList `gorm:"column:attributes;type:jsonb;serializer:json"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (v *ProductVariant) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
