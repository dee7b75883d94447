package controllers

import (
	"net/http"

	"github.com/craftlane/storefront-backend/api/responses"
	"github.com/craftlane/storefront-backend/api/validators"
	"github.com/craftlane/storefront-backend/internal/activity"
	"github.com/craftlane/storefront-backend/pkg/logger"
)

// RecentActivity returns the latest order events for the storefront ticker.
func RecentActivity(svc *activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}
