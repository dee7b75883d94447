package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/config"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	"github.com/craftlane/storefront-backend/pkg/enums"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
	"github.com/craftlane/storefront-backend/pkg/logger"
)

type stubProcessor struct {
	keyID       string
	intentID    string
	err         error
	gotAmount   int64
	gotCurrency string
	gotReceipt  string
}

func (s *stubProcessor) KeyID() string { return s.keyID }

func (s *stubProcessor) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (string, error) {
	s.gotAmount = amountMinor
	s.gotCurrency = currency
	s.gotReceipt = receipt
	if s.err != nil {
		return "", s.err
	}
	return s.intentID, nil
}

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS payment_gateways (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  kind TEXT NOT NULL,
  enabled INTEGER NOT NULL DEFAULT 0,
  settings TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		Currency:       "INR",
		ReceiptPrefix:  "order_rcpt",
		GatewayTimeout: 15 * time.Second,
	}
}

func newPaymentsService(t *testing.T, proc *stubProcessor) (Service, Repository) {
	t.Helper()

	conn := setupPaymentsTestDB(t)
	repo := NewRepository(conn)
	factory := func(creds models.GatewayCredentials, _ time.Duration) (Processor, error) {
		if proc == nil {
			return nil, errors.New("no processor configured")
		}
		if proc.keyID == "" {
			proc.keyID = creds.APIKey
		}
		return proc, nil
	}
	log := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
	svc, err := NewService(repo, factory, testCheckoutConfig(), log)
	require.NoError(t, err)
	return svc, repo
}

func seedGateway(t *testing.T, conn *gorm.DB, name string, enabled bool, settings map[string]string) *models.PaymentGateway {
	t.Helper()

	gateway := &models.PaymentGateway{
		Name:     name,
		Kind:     enums.GatewayKindRazorpay,
		Enabled:  enabled,
		Settings: settings,
	}
	require.NoError(t, conn.Create(gateway).Error)
	return gateway
}

func seedGatewayVia(t *testing.T, repo Repository, name string, enabled bool, settings map[string]string) *models.PaymentGateway {
	t.Helper()

	// Repository has no create op (the create_payment_gateways migration
	// seeds one row per processor), so tests insert through the underlying
	// connection.
	r, ok := repo.(*repository)
	require.True(t, ok)
	return seedGateway(t, r.db, name, enabled, settings)
}

func validSettings() map[string]string {
	return map[string]string{"api_key": "rzp_test_key", "api_secret": "shhh"}
}

func TestInitiateIntentBelowMinimumRejected(t *testing.T) {
	svc, _ := newPaymentsService(t, &stubProcessor{intentID: "order_x"})

	_, err := svc.InitiateIntent(context.Background(), uuid.New(), decimal.NewFromFloat(0.5))
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeValidation, storeErr.Code())
	assert.Contains(t, storeErr.Message(), "minimum order amount is 1")
}

func TestInitiateIntentDisabledGateway(t *testing.T) {
	proc := &stubProcessor{intentID: "order_x"}
	svc, repo := newPaymentsService(t, proc)
	gateway := seedGatewayVia(t, repo, "razorpay", false, validSettings())

	_, err := svc.InitiateIntent(context.Background(), gateway.ID, decimal.NewFromInt(10))
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeGatewayUnavailable, storeErr.Code())
}

func TestInitiateIntentMissingCredentials(t *testing.T) {
	svc, repo := newPaymentsService(t, &stubProcessor{intentID: "order_x"})
	gateway := seedGatewayVia(t, repo, "razorpay", true, map[string]string{"api_key": "only-key"})

	_, err := svc.InitiateIntent(context.Background(), gateway.ID, decimal.NewFromInt(10))
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeGatewayConfig, storeErr.Code())
}

func TestInitiateIntentConvertsToMinorUnits(t *testing.T) {
	proc := &stubProcessor{intentID: "order_xyz"}
	svc, repo := newPaymentsService(t, proc)
	gateway := seedGatewayVia(t, repo, "razorpay", true, validSettings())

	result, err := svc.InitiateIntent(context.Background(), gateway.ID, decimal.NewFromFloat(1499.50))
	require.NoError(t, err)

	assert.Equal(t, int64(149950), proc.gotAmount)
	assert.Equal(t, "INR", proc.gotCurrency)
	assert.Contains(t, proc.gotReceipt, "order_rcpt_")
	assert.Equal(t, "order_xyz", result.IntentID)
	assert.Equal(t, "rzp_test_key", result.KeyID)
}

func TestInitiateIntentAuthErrorMapped(t *testing.T) {
	proc := &stubProcessor{err: errors.New("BAD_REQUEST_ERROR: authentication failed")}
	svc, repo := newPaymentsService(t, proc)
	gateway := seedGatewayVia(t, repo, "razorpay", true, validSettings())

	_, err := svc.InitiateIntent(context.Background(), gateway.ID, decimal.NewFromInt(10))
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeGatewayConfig, storeErr.Code())
	assert.Contains(t, storeErr.Message(), "check your Key ID and Key Secret")
}

func TestInitiateIntentProcessorFailure(t *testing.T) {
	proc := &stubProcessor{err: errors.New("gateway timeout")}
	svc, repo := newPaymentsService(t, proc)
	gateway := seedGatewayVia(t, repo, "razorpay", true, validSettings())

	_, err := svc.InitiateIntent(context.Background(), gateway.ID, decimal.NewFromInt(10))
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeDependency, storeErr.Code())
}

func signPayment(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyRoundTrip(t *testing.T) {
	svc, repo := newPaymentsService(t, nil)
	seedGatewayVia(t, repo, "razorpay", true, validSettings())

	sig := signPayment("shhh", "order_abc", "pay_def")
	ok, err := svc.Verify(context.Background(), "razorpay", "order_abc", "pay_def", sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMutatedSignatureFails(t *testing.T) {
	svc, repo := newPaymentsService(t, nil)
	seedGatewayVia(t, repo, "razorpay", true, validSettings())

	sig := signPayment("shhh", "order_abc", "pay_def")
	mutated := "0" + sig[1:]
	if mutated == sig {
		mutated = "1" + sig[1:]
	}

	ok, err := svc.Verify(context.Background(), "razorpay", "order_abc", "pay_def", mutated)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMissingSecretMisconfigured(t *testing.T) {
	svc, repo := newPaymentsService(t, nil)
	seedGatewayVia(t, repo, "razorpay", true, map[string]string{"api_key": "rzp_test_key"})

	_, err := svc.Verify(context.Background(), "razorpay", "order_abc", "pay_def", "deadbeef")
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeGatewayConfig, storeErr.Code())
}

func TestVerifyUnknownGatewayUnavailable(t *testing.T) {
	svc, _ := newPaymentsService(t, nil)

	_, err := svc.Verify(context.Background(), "phonepe", "order_abc", "pay_def", "deadbeef")
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeGatewayUnavailable, storeErr.Code())
}

func TestUpdateGatewayRotatesSettings(t *testing.T) {
	svc, repo := newPaymentsService(t, nil)
	gateway := seedGatewayVia(t, repo, "razorpay", true, validSettings())

	enabled := false
	dto, err := svc.UpdateGateway(context.Background(), gateway.ID, UpdateGatewayInput{
		Enabled:  &enabled,
		Settings: map[string]string{"api_key": "rzp_live_key", "api_secret": "rotated"},
	})
	require.NoError(t, err)
	assert.False(t, dto.Enabled)

	stored, err := repo.FindByID(context.Background(), gateway.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", stored.Settings["api_secret"])
}

func TestUpdateGatewayIncompleteSettingsRejected(t *testing.T) {
	svc, repo := newPaymentsService(t, nil)
	gateway := seedGatewayVia(t, repo, "razorpay", true, validSettings())

	_, err := svc.UpdateGateway(context.Background(), gateway.ID, UpdateGatewayInput{
		Settings: map[string]string{"api_key": "rzp_live_key"},
	})
	require.Error(t, err)
	storeErr := pkgerrors.As(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, pkgerrors.CodeGatewayConfig, storeErr.Code())

	stored, err := repo.FindByID(context.Background(), gateway.ID)
	require.NoError(t, err)
	assert.Equal(t, "shhh", stored.Settings["api_secret"])
}
