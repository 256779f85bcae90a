package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/pkg/auth"
	"github.com/aisha-ai/aisha-crm/pkg/constants"
)

var (
	ErrNoTenantID = errors.New("no tenant id found in context")
	ErrNoAccess   = errors.New("no access state found in context")
)

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.TenantIDKey)
	if v == nil {
		return uuid.Nil, ErrNoTenantID
	}
	tenantID, ok := v.(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return tenantID, nil
}

// WithAccess attaches the verified per-request authorization state. Member
// credentials also populate the tenant id so repository code can keep using
// UseTenantID.
func WithAccess(ctx context.Context, access auth.Access) context.Context {
	ctx = context.WithValue(ctx, constants.AccessKey, access)
	if access.TenantID != uuid.Nil {
		ctx = WithTenantID(ctx, access.TenantID)
	}
	return ctx
}

func UseAccess(ctx context.Context) (auth.Access, error) {
	v := ctx.Value(constants.AccessKey)
	if v == nil {
		return auth.Access{}, ErrNoAccess
	}
	access, ok := v.(auth.Access)
	if !ok {
		return auth.Access{}, ErrNoAccess
	}
	return access, nil
}

// UseUnrestricted reports whether the caller holds a service-level or
// superadmin credential. Absence of access state is a deny, never a bypass.
func UseUnrestricted(ctx context.Context) bool {
	access, err := UseAccess(ctx)
	if err != nil {
		return false
	}
	return access.Unrestricted()
}
