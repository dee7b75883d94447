package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/craftlane/storefront-backend/api/responses"
	"github.com/craftlane/storefront-backend/api/validators"
	"github.com/craftlane/storefront-backend/internal/catalog"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
	"github.com/craftlane/storefront-backend/pkg/pagination"
	"github.com/craftlane/storefront-backend/pkg/types"
)

type variantRequest struct {
	ID         *string           `json:"id,omitempty" validate:"omitempty,uuid"`
	SKU        string            `json:"sku" validate:"required"`
	PriceCents int               `json:"price_cents" validate:"required,min=1"`
	StockQty   int               `json:"stock_qty" validate:"min=0"`
	Attributes []types.Attribute `json:"attributes,omitempty"`
}

type createProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	SKU         string           `json:"sku" validate:"required"`
	MRPCents    int              `json:"mrp_cents" validate:"min=0"`
	PriceCents  *int             `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	StockQty    int              `json:"stock_qty" validate:"min=0"`
	Tags        []string         `json:"tags,omitempty"`
	Category    string           `json:"category" validate:"required"`
	SubCategory *string          `json:"sub_category,omitempty"`
	Status      string           `json:"status" validate:"required"`
	Variants    []variantRequest `json:"variants,omitempty"`
}

type updateProductRequest struct {
	Name        *string           `json:"name,omitempty"`
	SKU         *string           `json:"sku,omitempty"`
	MRPCents    *int              `json:"mrp_cents,omitempty" validate:"omitempty,min=0"`
	PriceCents  *int              `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	StockQty    *int              `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	Tags        *[]string         `json:"tags,omitempty"`
	Category    *string           `json:"category,omitempty"`
	SubCategory *string           `json:"sub_category,omitempty"`
	Status      *string           `json:"status,omitempty"`
	Variants    *[]variantRequest `json:"variants,omitempty"`
}

func parseVariantInputs(rows []variantRequest) ([]catalog.VariantInput, error) {
	inputs := make([]catalog.VariantInput, 0, len(rows))
	for _, row := range rows {
		input := catalog.VariantInput{
			SKU:        strings.TrimSpace(row.SKU),
			PriceCents: row.PriceCents,
			StockQty:   row.StockQty,
			Attributes: types.AttributeList(row.Attributes),
		}
		if row.ID != nil {
			id, err := uuid.Parse(*row.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
			}
			input.ID = &id
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// ListProducts serves the public storefront catalog. Only published listings
// are visible here regardless of query parameters.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listProductsQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		published := enums.ProductStatusPublished
		input.Status = &published

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminListProducts serves the back-office catalog with an optional status filter.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listProductsQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func listProductsQuery(r *http.Request) (catalog.ListProductsInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return catalog.ListProductsInput{}, err
	}

	input := catalog.ListProductsInput{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		input.Category = &category
	}
	if search := strings.TrimSpace(r.URL.Query().Get("q")); search != "" {
		input.Search = &search
	}
	return input, nil
}

// GetProduct returns one listing with its variants.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminCreateProduct creates a listing, optionally with its variant set.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseProductStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		variants, err := parseVariantInputs(payload.Variants)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:        payload.Name,
			SKU:         payload.SKU,
			MRPCents:    payload.MRPCents,
			PriceCents:  payload.PriceCents,
			StockQty:    payload.StockQty,
			Tags:        payload.Tags,
			Category:    payload.Category,
			SubCategory: payload.SubCategory,
			Status:      status,
			Variants:    variants,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial update. Omitting the variants field
// leaves the stored variant set untouched; sending it replaces the set,
// creating rows without ids, updating rows with known ids and deleting the
// rest.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:        payload.Name,
			SKU:         payload.SKU,
			MRPCents:    payload.MRPCents,
			PriceCents:  payload.PriceCents,
			StockQty:    payload.StockQty,
			Tags:        payload.Tags,
			Category:    payload.Category,
			SubCategory: payload.SubCategory,
		}
		if payload.Status != nil {
			status, err := enums.ParseProductStatus(strings.TrimSpace(*payload.Status))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if payload.Variants != nil {
			variants, err := parseVariantInputs(*payload.Variants)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Variants = &variants
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct removes a listing and its variants.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
