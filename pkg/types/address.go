package types

import "strings"

// Address is the shipping address snapshot frozen onto an order. It is stored
// inline as JSONB, never as a reference to a live address row.
type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// IsZero reports whether no address fields are populated.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Validate checks the fields required for delivery.
func (a Address) Validate() error {
	missing := []string{}
	if strings.TrimSpace(a.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// MissingFieldsError lists required address fields absent from the payload.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing address fields: " + strings.Join(e.Fields, ", ")
}
