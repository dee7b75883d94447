package controllers

import (
	"net/http"

	"github.com/craftlane/storefront-backend/api/responses"
	"github.com/craftlane/storefront-backend/api/validators"
	"github.com/craftlane/storefront-backend/internal/payments"
	"github.com/craftlane/storefront-backend/pkg/logger"
)

type updateGatewayRequest struct {
	Enabled  *bool             `json:"enabled,omitempty"`
	Settings map[string]string `json:"settings,omitempty"`
}

// AdminListGateways lists configured payment gateways without their secrets.
func AdminListGateways(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gateways, err := svc.ListGateways(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gateways)
	}
}

// AdminUpdateGateway toggles a gateway or rotates its credentials. Settings
// are replaced wholesale, so a rotation must send the complete credential set.
func AdminUpdateGateway(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "gatewayID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateGatewayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gateway, err := svc.UpdateGateway(r.Context(), id, payments.UpdateGatewayInput{
			Enabled:  payload.Enabled,
			Settings: payload.Settings,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gateway)
	}
}
