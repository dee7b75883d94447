package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
)

const (
	settingsKeyAPIKey    = "api_key"
	settingsKeyAPISecret = "api_secret"
)

// PaymentGateway is an admin-configured processor integration. Settings is an
// extensible bag, but the fields a given Kind requires are validated through
// Credentials so rotation mistakes fail loudly instead of silently verifying
// nothing. Callers must re-read the row on every initiate/verify call; rotated
// credentials take effect immediately.
type PaymentGateway struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string            `gorm:"column:name;uniqueIndex;not null"`
	Kind      enums.GatewayKind `gorm:"column:kind;not null"`
	Enabled   bool              `gorm:"column:enabled;not null;default:false"`
	Settings  map[string]string `gorm:"column:settings;type:jsonb;serializer:json"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// GatewayCredentials is the typed view of the settings bag.
type GatewayCredentials struct {
	APIKey    string
	APISecret string
}

// Credentials extracts and validates the credential fields the gateway kind
// requires.
func (g *PaymentGateway) Credentials() (GatewayCredentials, error) {
	creds := GatewayCredentials{
		APIKey:    g.Settings[settingsKeyAPIKey],
		APISecret: g.Settings[settingsKeyAPISecret],
	}
	switch g.Kind {
	case enums.GatewayKindRazorpay, enums.GatewayKindPhonePe:
		if creds.APIKey == "" || creds.APISecret == "" {
			return GatewayCredentials{}, pkgerrors.New(pkgerrors.CodeGatewayConfig, "gateway credentials incomplete")
		}
	default:
		return GatewayCredentials{}, pkgerrors.New(pkgerrors.CodeGatewayConfig, "unknown gateway kind")
	}
	return creds, nil
}

// Secret returns the signing secret used for callback verification.
func (g *PaymentGateway) Secret() (string, error) {
	secret := g.Settings[settingsKeyAPISecret]
	if secret == "" {
		return "", pkgerrors.New(pkgerrors.CodeGatewayConfig, "gateway secret missing")
	}
	return secret, nil
}

// BeforeCreate assigns an id when the dialect has no server-side default.
func (g *PaymentGateway) BeforeCreate(_ *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
