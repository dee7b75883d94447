package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
)

// Service exposes the customer's cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, variantID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// AddItemInput identifies the catalog line a customer wants in their cart.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// CartDTO is the API shape of a cart.
type CartDTO struct {
	ID    uuid.UUID     `json:"id"`
	Items []CartItemDTO `json:"items"`
}

// CartItemDTO is one cart line.
type CartItemDTO struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Qty       int        `json:"qty"`
}

type catalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type service struct {
	repo     Repository
	catalog  catalogReader
	dbClient *db.Client
}

// NewService constructs a cart service instance.
func NewService(repo Repository, catalog catalogReader, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, catalog: catalog, dbClient: dbClient}, nil
}

// Get returns the user's cart, creating an empty one on first touch.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newCartDTO(cart), nil
}

// AddItem adds a catalog line to the cart. A repeat add of the same
// (product, variant) pair increments the stored quantity.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if input.VariantID != nil {
		variant, err := s.catalog.FindVariantByID(ctx, *input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
		}
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindItem(ctx, cart.ID, input.ProductID, input.VariantID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find cart item")
		}
		if existing != nil {
			existing.Qty += input.Qty
			return txRepo.UpdateItem(ctx, existing)
		}
		return txRepo.CreateItem(ctx, &models.CartItem{
			CartID:    cart.ID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Qty:       input.Qty,
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add cart item")
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes the line holding the given variant from the user's cart.
// A variant in someone else's cart is out of reach here because the lookup is
// scoped to the owner's cart id.
func (s *service) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.DeleteItemByVariant(ctx, cart.ID, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
	}
	if removed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

func (s *service) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{UserID: userID}
	if err := s.repo.Create(ctx, fresh); err != nil {
		// A concurrent first touch may have created it already.
		if db.IsUniqueViolation(err, "") {
			return s.repo.FindByUserID(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return fresh, nil
}

func newCartDTO(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:    cart.ID,
		Items: make([]CartItemDTO, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Qty:       item.Qty,
		})
	}
	return dto
}
