package auth

import (
	"context"
	"slices"

	"roombook/pkg/model"
)

type Identity struct {
	UserID string
	Role   model.Role
}

// Has reports whether the identity holds one of the given roles.
func (i Identity) Has(roles ...model.Role) bool {
	return slices.Contains(roles, i.Role)
}

func (i Identity) IsStaff() bool {
	return i.Has(model.RoleManager, model.RoleAdmin)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
