package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	"github.com/craftlane/storefront-backend/pkg/types"
)

// ProductDTO is the API shape of a product with its variants.
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	SKU         string              `json:"sku"`
	MRPCents    int                 `json:"mrp_cents"`
	PriceCents  *int                `json:"price_cents,omitempty"`
	StockQty    int                 `json:"stock_qty"`
	Tags        []string            `json:"tags,omitempty"`
	Category    string              `json:"category"`
	SubCategory *string             `json:"sub_category,omitempty"`
	Status      enums.ProductStatus `json:"status"`
	Variants    []VariantDTO        `json:"variants"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// VariantDTO is the API shape of a product variant.
type VariantDTO struct {
	ID         uuid.UUID           `json:"id"`
	SKU        string              `json:"sku"`
	PriceCents int                 `json:"price_cents"`
	StockQty   int                 `json:"stock_qty"`
	Attributes types.AttributeList `json:"attributes,omitempty"`
}

// ProductListResult pairs a page of products with the cursor for the next one.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// NewProductDTO maps a product row onto its API shape.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		SKU:         product.SKU,
		MRPCents:    product.MRPCents,
		PriceCents:  product.PriceCents,
		StockQty:    product.StockQty,
		Tags:        product.Tags,
		Category:    product.Category,
		SubCategory: product.SubCategory,
		Status:      product.Status,
		Variants:    make([]VariantDTO, 0, len(product.Variants)),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, variant := range product.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:         variant.ID,
			SKU:        variant.SKU,
			PriceCents: variant.PriceCents,
			StockQty:   variant.StockQty,
			Attributes: variant.Attributes,
		})
	}
	return dto
}
