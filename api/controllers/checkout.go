package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftlane/storefront-backend/api/middleware"
	"github.com/craftlane/storefront-backend/api/responses"
	"github.com/craftlane/storefront-backend/api/validators"
	cartsvc "github.com/craftlane/storefront-backend/internal/cart"
	"github.com/craftlane/storefront-backend/internal/orders"
	"github.com/craftlane/storefront-backend/internal/payments"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
	"github.com/craftlane/storefront-backend/pkg/types"
)

type orderLineRequest struct {
	ProductID      string  `json:"product_id" validate:"required,uuid"`
	VariantID      *string `json:"variant_id,omitempty" validate:"omitempty,uuid"`
	Qty            int     `json:"qty" validate:"required,min=1"`
	UnitPriceCents *int    `json:"unit_price_cents,omitempty" validate:"omitempty,min=1"`
}

type paymentAssertionRequest struct {
	OrderRef   string `json:"order_ref" validate:"required"`
	PaymentRef string `json:"payment_ref" validate:"required"`
	Signature  string `json:"signature" validate:"required"`
}

type placeOrderRequest struct {
	GuestEmail      *string                  `json:"guest_email,omitempty" validate:"omitempty,email"`
	Lines           []orderLineRequest       `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress types.Address            `json:"shipping_address" validate:"required"`
	PaymentMethod   string                   `json:"payment_method" validate:"required"`
	Payment         *paymentAssertionRequest `json:"payment,omitempty"`
	DiscountCents   int                      `json:"discount_cents" validate:"min=0"`
	CouponCode      *string                  `json:"coupon_code,omitempty"`
	DeliveryCents   int                      `json:"delivery_cents" validate:"min=0"`
	DeliveryType    *string                  `json:"delivery_type,omitempty"`
}

type initiateIntentRequest struct {
	GatewayID   string          `json:"gateway_id" validate:"required,uuid"`
	TotalAmount decimal.Decimal `json:"total_amount" validate:"required"`
}

// PlaceOrder runs checkout for a signed-in shopper or a guest. On success the
// signed-in shopper's cart is emptied; a failed clear never fails the order.
func PlaceOrder(svc orders.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toPlaceOrderInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			input.UserID = &userID
		}

		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if input.UserID != nil && carts != nil {
			if clearErr := carts.Clear(r.Context(), *input.UserID); clearErr != nil && logg != nil {
				logg.Error(r.Context(), "cart.clear_after_checkout", clearErr)
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func (p placeOrderRequest) toPlaceOrderInput() (orders.PlaceOrderInput, error) {
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return orders.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	lines := make([]orders.PlaceOrderLine, 0, len(p.Lines))
	for _, row := range p.Lines {
		productID, err := uuid.Parse(row.ProductID)
		if err != nil {
			return orders.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		line := orders.PlaceOrderLine{
			ProductID:      productID,
			Qty:            row.Qty,
			UnitPriceCents: row.UnitPriceCents,
		}
		if row.VariantID != nil {
			variantID, err := uuid.Parse(*row.VariantID)
			if err != nil {
				return orders.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
			}
			line.VariantID = &variantID
		}
		lines = append(lines, line)
	}

	input := orders.PlaceOrderInput{
		GuestEmail:      p.GuestEmail,
		Lines:           lines,
		ShippingAddress: p.ShippingAddress,
		PaymentMethod:   method,
		DiscountCents:   p.DiscountCents,
		CouponCode:      p.CouponCode,
		DeliveryCents:   p.DeliveryCents,
		DeliveryType:    p.DeliveryType,
	}
	if p.Payment != nil {
		input.Payment = &orders.PaymentAssertion{
			OrderRef:   p.Payment.OrderRef,
			PaymentRef: p.Payment.PaymentRef,
			Signature:  p.Payment.Signature,
		}
	}
	return input, nil
}

// InitiateRazorpayOrder registers the checkout amount with the gateway and
// returns the processor order id plus the publishable key for the client SDK.
func InitiateRazorpayOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload initiateIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatewayID, err := uuid.Parse(payload.GatewayID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway id"))
			return
		}

		intent, err := svc.InitiateIntent(r.Context(), gatewayID, payload.TotalAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, intent)
	}
}
