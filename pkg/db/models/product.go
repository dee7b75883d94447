package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/enums"
)

// Product is a catalog listing. A product either carries its own price/sku/
// stock (variant-less) or defers to its variants, in which case PriceCents is
// a display fallback only.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	SKU         string              `gorm:"column:sku;uniqueIndex;not null"`
	MRPCents    int                 `gorm:"column:mrp_cents;not null"`
	PriceCents  *int                `gorm:"column:price_cents"`
	StockQty    int                 `gorm:"column:stock_qty;not null;default:0"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]"`
	Category    string              `gorm:"column:category;not null"`
	SubCategory *string             `gorm:"column:sub_category"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// HasVariants reports whether the listing defers pricing to its variants.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
