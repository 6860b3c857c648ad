package access

import "context"

type contextKey string

const admissionContextKey contextKey = "admission"

// Admission is what downstream handlers learn about the current request.
type Admission struct {
	Tier          Tier `json:"tier"`
	PublicGateway bool `json:"public_gateway"`
}

// MayRevealIdentity reports whether pages that expose the node's identity may
// be shown. In public gateway mode only full-access clients see them.
func (a Admission) MayRevealIdentity() bool {
	return a.Tier == FullAccess || (a.Tier == RestrictedAccess && !a.PublicGateway)
}

// NewContext returns a copy of ctx carrying a.
func NewContext(ctx context.Context, a Admission) context.Context {
	return context.WithValue(ctx, admissionContextKey, a)
}

// FromContext returns the admission stored in ctx, if any.
func FromContext(ctx context.Context) (Admission, bool) {
	a, ok := ctx.Value(admissionContextKey).(Admission)
	return a, ok
}

// TierFromContext returns the tier of the current request, or Denied when the
// request did not pass through the admission filter.
func TierFromContext(ctx context.Context) Tier {
	a, _ := FromContext(ctx)
	return a.Tier
}

// PublicGatewayFromContext returns the public gateway flag seen when the
// request was admitted.
func PublicGatewayFromContext(ctx context.Context) bool {
	a, _ := FromContext(ctx)
	return a.PublicGateway
}
