package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/craftlane/storefront-backend/api/responses"
	"github.com/craftlane/storefront-backend/api/validators"
	"github.com/craftlane/storefront-backend/internal/categories"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// ListCategories returns the full category tree as a flat list.
func ListCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminCreateCategory adds a node, optionally under a parent.
func AdminCreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := categories.CreateCategoryInput{Name: payload.Name}
		if payload.ParentID != nil {
			parentID, err := uuid.Parse(*payload.ParentID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid parent id"))
				return
			}
			input.ParentID = &parentID
		}

		category, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// AdminDeleteCategory removes a node and its descendants. Nodes still
// referenced by products block the whole deletion.
func AdminDeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "categoryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
