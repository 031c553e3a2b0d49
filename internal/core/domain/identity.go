package domain

import (
	"context"
	"time"
)

// AuthToken is a signed, stateless credential handed out at login.
type AuthToken struct {
	Token     string
	SubjectID string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RequestIdentity is the verified caller of a request.
type RequestIdentity struct {
	SubjectID string `json:"subjectId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// HasRole reports whether the identity holds any of roles.
func (id RequestIdentity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id RequestIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (RequestIdentity, bool) {
	id, ok := ctx.Value(identityKey{}).(RequestIdentity)
	return id, ok && id.SubjectID != ""
}
