package tenant

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*Tenant, error)
	// ResolveKey maps a legacy string tenant key to its internal UUID. Used
	// by migration backfill and by callers still holding the old identifier.
	ResolveKey(ctx context.Context, slug string) (uuid.UUID, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) (*Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Tenant, error)
}
