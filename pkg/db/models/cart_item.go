package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line in a shopper's cart. VariantID is nil for variant-less
// products. Re-adding the same (product, variant) pair increments Qty instead
// of inserting a second row.
type CartItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index:idx_cart_items_line,unique"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index:idx_cart_items_line,unique"`
	VariantID *uuid.UUID `gorm:"column:variant_id;type:uuid;index:idx_cart_items_line,unique"`
	Qty       int        `gorm:"column:qty;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (c *CartItem) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
