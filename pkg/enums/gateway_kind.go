package enums

import "fmt"

// GatewayKind identifies which external processor integration a
// PaymentGateway row configures. The kind decides which credential fields the
// settings bag must carry.
type GatewayKind string

const (
	GatewayKindRazorpay GatewayKind = "razorpay"
	GatewayKindPhonePe  GatewayKind = "phonepe"
)

var validGatewayKinds = []GatewayKind{
	GatewayKindRazorpay,
	GatewayKindPhonePe,
}

// String implements fmt.Stringer.
func (g GatewayKind) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayKind.
func (g GatewayKind) IsValid() bool {
	for _, candidate := range validGatewayKinds {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayKind converts raw input into a GatewayKind.
func ParseGatewayKind(value string) (GatewayKind, error) {
	for _, candidate := range validGatewayKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway kind %q", value)
}
