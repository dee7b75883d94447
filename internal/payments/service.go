package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/config"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
	"github.com/craftlane/storefront-backend/pkg/razorpay"
)

// minOrderMajor is the smallest order amount the processor accepts, in major
// currency units.
var minOrderMajor = decimal.NewFromInt(1)

// Processor opens payment intents with an external provider.
type Processor interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

// ProcessorFactory builds a processor from freshly loaded gateway credentials.
// A new processor per call keeps rotated credentials from being cached.
type ProcessorFactory func(creds models.GatewayCredentials, timeout time.Duration) (Processor, error)

// RazorpayProcessorFactory is the production factory.
func RazorpayProcessorFactory(creds models.GatewayCredentials, timeout time.Duration) (Processor, error) {
	return razorpay.NewClient(creds.APIKey, creds.APISecret, timeout)
}

// IntentResult carries what the storefront needs to open the payment widget.
type IntentResult struct {
	IntentID string `json:"order_id"`
	KeyID    string `json:"key_id"`
}

// Service exposes gateway administration plus the two checkout-facing
// operations: intent creation and callback signature verification.
type Service interface {
	InitiateIntent(ctx context.Context, gatewayID uuid.UUID, amountMajor decimal.Decimal) (*IntentResult, error)
	Verify(ctx context.Context, gatewayName, orderRef, paymentRef, signature string) (bool, error)
	ListGateways(ctx context.Context) ([]GatewayDTO, error)
	UpdateGateway(ctx context.Context, id uuid.UUID, input UpdateGatewayInput) (*GatewayDTO, error)
}

// UpdateGatewayInput holds admin mutations for a gateway row.
type UpdateGatewayInput struct {
	Enabled  *bool
	Settings map[string]string
}

// GatewayDTO is the admin API shape of a gateway. Secrets stay server-side;
// only the setting keys are reported.
type GatewayDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Kind        enums.GatewayKind `json:"kind"`
	Enabled     bool              `json:"enabled"`
	SettingKeys []string          `json:"setting_keys"`
}

type service struct {
	repo       Repository
	newProc    ProcessorFactory
	cfg        config.CheckoutConfig
	log        *logger.Logger
	receiptSeq func() string
}

// NewService constructs a payments service instance.
func NewService(repo Repository, factory ProcessorFactory, cfg config.CheckoutConfig, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("gateway repository required")
	}
	if factory == nil {
		return nil, fmt.Errorf("processor factory required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		newProc: factory,
		cfg:     cfg,
		log:     log,
		receiptSeq: func() string {
			return uuid.NewString()
		},
	}, nil
}

// InitiateIntent opens a payment intent for the given amount. Credentials are
// read from the gateway row on every call.
func (s *service) InitiateIntent(ctx context.Context, gatewayID uuid.UUID, amountMajor decimal.Decimal) (*IntentResult, error) {
	if amountMajor.LessThan(minOrderMajor) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount is 1")
	}

	gateway, err := s.loadGatewayByID(ctx, gatewayID)
	if err != nil {
		return nil, err
	}
	if !gateway.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway is disabled")
	}
	if gateway.Kind != enums.GatewayKindRazorpay {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "gateway does not support online intents")
	}

	creds, err := gateway.Credentials()
	if err != nil {
		return nil, err
	}
	proc, err := s.newProc(creds, s.cfg.GatewayTimeout)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayConfig, err, "build payment processor")
	}

	amountMinor := amountMajor.Mul(decimal.NewFromInt(100)).IntPart()
	receipt := fmt.Sprintf("%s_%s", s.cfg.ReceiptPrefix, s.receiptSeq())

	intentID, err := proc.CreateOrder(ctx, amountMinor, s.cfg.Currency, receipt)
	if err != nil {
		if razorpay.IsAuthError(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayConfig, err, "gateway rejected credentials, check your Key ID and Key Secret")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"gatewayId": gatewayID.String(),
		"intentId":  intentID,
	}), "payment intent created")
	return &IntentResult{IntentID: intentID, KeyID: proc.KeyID()}, nil
}

// Verify checks the processor callback signature: hex HMAC-SHA256 over
// orderRef|paymentRef keyed with the gateway secret, compared in constant
// time.
func (s *service) Verify(ctx context.Context, gatewayName, orderRef, paymentRef, signature string) (bool, error) {
	if orderRef == "" || paymentRef == "" || signature == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment details required")
	}

	gateway, err := s.repo.FindByName(ctx, gatewayName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway not configured")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gateway")
	}

	secret, err := gateway.Secret()
	if err != nil {
		return false, err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))), nil
}

func (s *service) ListGateways(ctx context.Context) ([]GatewayDTO, error) {
	gateways, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list gateways")
	}
	dtos := make([]GatewayDTO, 0, len(gateways))
	for i := range gateways {
		dtos = append(dtos, *newGatewayDTO(&gateways[i]))
	}
	return dtos, nil
}

// UpdateGateway rotates settings or toggles availability. Settings replace the
// stored bag wholesale so stale keys do not linger after a rotation.
func (s *service) UpdateGateway(ctx context.Context, id uuid.UUID, input UpdateGatewayInput) (*GatewayDTO, error) {
	gateway, err := s.loadGatewayByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Settings != nil {
		gateway.Settings = input.Settings
		if _, err := gateway.Credentials(); err != nil {
			return nil, err
		}
	}
	if input.Enabled != nil {
		gateway.Enabled = *input.Enabled
	}

	if err := s.repo.Update(ctx, gateway); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update gateway")
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"gatewayId": gateway.ID.String(),
		"enabled":   gateway.Enabled,
	}), "payment gateway updated")
	return newGatewayDTO(gateway), nil
}

func (s *service) loadGatewayByID(ctx context.Context, id uuid.UUID) (*models.PaymentGateway, error) {
	gateway, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gateway")
	}
	return gateway, nil
}

func newGatewayDTO(gateway *models.PaymentGateway) *GatewayDTO {
	keys := make([]string, 0, len(gateway.Settings))
	for key := range gateway.Settings {
		keys = append(keys, key)
	}
	return &GatewayDTO{
		ID:          gateway.ID,
		Name:        gateway.Name,
		Kind:        gateway.Kind,
		Enabled:     gateway.Enabled,
		SettingKeys: keys,
	}
}
