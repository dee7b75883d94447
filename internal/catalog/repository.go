package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	"github.com/craftlane/storefront-backend/pkg/pagination"
)

// Repository handles catalog persistence for products and their variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params ListProductsQuery) ([]models.Product, *pagination.Cursor, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error)
	CreateVariants(ctx context.Context, variants []models.ProductVariant) error
	UpdateVariant(ctx context.Context, variant *models.ProductVariant) error
	DeleteVariants(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) error
	DeleteAllVariants(ctx context.Context, productID uuid.UUID) error
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	CountProductsByCategory(ctx context.Context, category string) (int64, error)
}

// ListProductsQuery configures product list queries.
type ListProductsQuery struct {
	Status   *enums.ProductStatus
	Category *string
	Search   *string
	Limit    int
	Cursor   *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Save(product).Error
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", id).
		Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, params ListProductsQuery) ([]models.Product, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Variants")
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.Search != nil && *params.Search != "" {
		pattern := "%" + *params.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", pattern, pattern)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.Timestamp, params.Cursor.ID)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > limit {
		next := products[limit]
		products = products[:limit]
		return products, &pagination.Cursor{
			Timestamp: next.CreatedAt,
			ID:        next.ID,
		}, nil
	}
	return products, nil, nil
}

func (r *repository) ListVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *repository) CreateVariants(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

func (r *repository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

func (r *repository) DeleteVariants(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("product_id = ? AND id IN ?", productID, ids).
		Delete(&models.ProductVariant{}).Error
}

func (r *repository) DeleteAllVariants(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductVariant{}).Error
}

func (r *repository) FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) CountProductsByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category = ?", category).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
