package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db/models"
)

// Repository handles payment gateway persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentGateway, error)
	FindByName(ctx context.Context, name string) (*models.PaymentGateway, error)
	ListAll(ctx context.Context) ([]models.PaymentGateway, error)
	Update(ctx context.Context, gateway *models.PaymentGateway) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gateway repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentGateway, error) {
	var gateway models.PaymentGateway
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&gateway).Error; err != nil {
		return nil, err
	}
	return &gateway, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.PaymentGateway, error) {
	var gateway models.PaymentGateway
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&gateway).Error; err != nil {
		return nil, err
	}
	return &gateway, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.PaymentGateway, error) {
	var gateways []models.PaymentGateway
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&gateways).Error; err != nil {
		return nil, err
	}
	return gateways, nil
}

func (r *repository) Update(ctx context.Context, gateway *models.PaymentGateway) error {
	return r.db.WithContext(ctx).Save(gateway).Error
}
