package access

// Tier is the outcome of classifying a remote address. The zero value is
// Denied.
type Tier int

const (
	// Denied clients matched neither host list.
	Denied Tier = iota
	// RestrictedAccess clients may use non-sensitive operations only.
	RestrictedAccess
	// FullAccess clients may use every operation.
	FullAccess
)

// String returns the wire name of the tier.
func (t Tier) String() string {
	switch t {
	case FullAccess:
		return "full"
	case RestrictedAccess:
		return "restricted"
	default:
		return "denied"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Admitted reports whether the request may proceed at all.
func (t Tier) Admitted() bool {
	return t == RestrictedAccess || t == FullAccess
}
