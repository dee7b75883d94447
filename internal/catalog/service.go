package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/pagination"
)

// Service exposes storefront catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	SKU         string
	MRPCents    int
	PriceCents  *int
	StockQty    int
	Tags        []string
	Category    string
	SubCategory *string
	Status      enums.ProductStatus
	Variants    []VariantInput
}

// UpdateProductInput holds optional mutation values for a product. A nil
// Variants pointer leaves the stored variant set untouched; a non-nil pointer
// reconciles against it, including the empty slice which wipes all variants.
type UpdateProductInput struct {
	Name        *string
	SKU         *string
	MRPCents    *int
	PriceCents  *int
	StockQty    *int
	Tags        *[]string
	Category    *string
	SubCategory *string
	Status      *enums.ProductStatus
	Variants    *[]VariantInput
}

// ListProductsInput configures product listing for both storefront and admin.
type ListProductsInput struct {
	Status   *enums.ProductStatus
	Category *string
	Search   *string
	Limit    int
	Cursor   string
}

type service struct {
	repo     Repository
	dbClient *db.Client
}

// NewService constructs a catalog service instance.
func NewService(repo Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// CreateProduct validates the pricing invariant, then writes the product and
// its variants in one transaction.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validatePricing(input.PriceCents, input.Variants); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        input.Name,
		SKU:         input.SKU,
		MRPCents:    input.MRPCents,
		PriceCents:  input.PriceCents,
		StockQty:    input.StockQty,
		Tags:        input.Tags,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Status:      input.Status,
	}
	if product.Status == "" {
		product.Status = enums.ProductStatusDraft
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return wrapVariantWriteErr(err)
		}
		_, err := Reconcile(ctx, tx, s.repo, product.ID, input.Variants)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies the partial update and reconciles variants when the
// payload carries a variants field.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	applyProductUpdate(product, input)

	effectiveVariants := variantsAfterUpdate(product, input)
	if err := validatePricing(product.PriceCents, effectiveVariants); err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateProduct(ctx, product); err != nil {
			return wrapVariantWriteErr(err)
		}
		if input.Variants == nil {
			return nil
		}
		_, err := Reconcile(ctx, tx, s.repo, product.ID, *input.Variants)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.GetProduct(ctx, product.ID)
}

// DeleteProduct removes the product and its variants.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteProduct(ctx, productID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// GetProduct loads a single product with its variants.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// ListProducts returns a cursor-paginated page of products.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	products, next, err := s.repo.ListProducts(ctx, ListProductsQuery{
		Status:   input.Status,
		Category: input.Category,
		Search:   input.Search,
		Limit:    input.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(products))}
	for i := range products {
		result.Products = append(result.Products, *NewProductDTO(&products[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		result.NextCursor = &encoded
	}
	return result, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// validatePricing enforces that a product is purchasable: either its variants
// carry prices, or the product itself does. Each variant row needs a sku and
// a positive price.
func validatePricing(priceCents *int, variants []VariantInput) error {
	if len(variants) == 0 {
		if priceCents == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product without variants requires a price")
		}
		if *priceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		return nil
	}
	for i, row := range variants {
		if strings.TrimSpace(row.SKU) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %d missing sku", i))
		}
		if row.PriceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %d requires a positive price", i))
		}
		if row.StockQty < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %d stock cannot be negative", i))
		}
	}
	return nil
}

func applyProductUpdate(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.MRPCents != nil {
		product.MRPCents = *input.MRPCents
	}
	if input.PriceCents != nil {
		product.PriceCents = input.PriceCents
	}
	if input.StockQty != nil {
		product.StockQty = *input.StockQty
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.SubCategory != nil {
		product.SubCategory = input.SubCategory
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
}

// variantsAfterUpdate resolves the variant set the pricing invariant should be
// checked against: the payload's if present, otherwise the stored one.
func variantsAfterUpdate(product *models.Product, input UpdateProductInput) []VariantInput {
	if input.Variants != nil {
		return *input.Variants
	}
	current := make([]VariantInput, 0, len(product.Variants))
	for i := range product.Variants {
		variant := product.Variants[i]
		current = append(current, VariantInput{
			ID:         &variant.ID,
			SKU:        variant.SKU,
			PriceCents: variant.PriceCents,
			StockQty:   variant.StockQty,
			Attributes: variant.Attributes,
		})
	}
	return current
}

func wrapVariantWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already in use")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: write product")
}
