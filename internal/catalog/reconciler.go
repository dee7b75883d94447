package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/types"
)

// VariantInput is one desired variant row in a product write. A nil ID marks
// the row as new; a non-nil ID must match an existing variant of the product.
type VariantInput struct {
	ID         *uuid.UUID
	SKU        string
	PriceCents int
	StockQty   int
	Attributes types.AttributeList
}

// ReconcileResult reports which variant rows each pass touched.
type ReconcileResult struct {
	CreatedIDs []uuid.UUID
	UpdatedIDs []uuid.UUID
	DeletedIDs []uuid.UUID
}

// Reconcile diffs the incoming variant set against the stored one and applies
// deletes, updates, and creates in that order. It must run inside the caller's
// transaction so a partial diff never lands.
func Reconcile(ctx context.Context, tx *gorm.DB, repo Repository, productID uuid.UUID, incoming []VariantInput) (*ReconcileResult, error) {
	txRepo := repo.WithTx(tx)

	existing, err := txRepo.ListVariants(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list variants")
	}

	result := &ReconcileResult{}

	if len(incoming) == 0 {
		for _, variant := range existing {
			result.DeletedIDs = append(result.DeletedIDs, variant.ID)
		}
		if err := txRepo.DeleteAllVariants(ctx, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete variants")
		}
		return result, nil
	}

	existingByID := make(map[uuid.UUID]*models.ProductVariant, len(existing))
	for i := range existing {
		existingByID[existing[i].ID] = &existing[i]
	}

	keep := make(map[uuid.UUID]bool, len(incoming))
	var creates []models.ProductVariant
	var updates []*models.ProductVariant
	for _, row := range incoming {
		if row.ID == nil {
			creates = append(creates, models.ProductVariant{
				ProductID:  productID,
				SKU:        row.SKU,
				PriceCents: row.PriceCents,
				StockQty:   row.StockQty,
				Attributes: row.Attributes,
			})
			continue
		}
		current, ok := existingByID[*row.ID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown variant id %s", row.ID))
		}
		keep[*row.ID] = true
		current.SKU = row.SKU
		current.PriceCents = row.PriceCents
		current.StockQty = row.StockQty
		current.Attributes = row.Attributes
		updates = append(updates, current)
	}

	var deletes []uuid.UUID
	for _, variant := range existing {
		if !keep[variant.ID] {
			deletes = append(deletes, variant.ID)
		}
	}

	if err := txRepo.DeleteVariants(ctx, productID, deletes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete variants")
	}
	result.DeletedIDs = deletes

	for _, variant := range updates {
		if err := txRepo.UpdateVariant(ctx, variant); err != nil {
			return nil, wrapVariantWriteErr(err)
		}
		result.UpdatedIDs = append(result.UpdatedIDs, variant.ID)
	}

	if err := txRepo.CreateVariants(ctx, creates); err != nil {
		return nil, wrapVariantWriteErr(err)
	}
	for _, variant := range creates {
		result.CreatedIDs = append(result.CreatedIDs, variant.ID)
	}

	return result, nil
}
