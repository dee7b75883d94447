package types

// Attribute is one variant axis, e.g. {Name: "Size", Value: "M"}.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AttributeList preserves the admin-defined ordering of variant axes (Size
// before Color, etc). Stored as a JSONB array so the order survives the
// round-trip, unlike a map.
type AttributeList []Attribute

// Get returns the value for the named attribute.
func (l AttributeList) Get(name string) (string, bool) {
	for _, attr := range l {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Equal reports whether both lists carry the same pairs in the same order.
func (l AttributeList) Equal(other AttributeList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy safe to freeze onto an order item.
func (l AttributeList) Clone() AttributeList {
	if l == nil {
		return nil
	}
	out := make(AttributeList, len(l))
	copy(out, l)
	return out
}
