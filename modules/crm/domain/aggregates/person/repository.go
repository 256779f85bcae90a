package person

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("person not found")

type FindParams struct {
	Kind   Kind
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	GetByRef(ctx context.Context, ref Ref) (Person, error)
	// ResolveKind checks existence across both entity sets. Exactly one must
	// match; ErrNotFound means the person no longer exists.
	ResolveKind(ctx context.Context, id uuid.UUID) (Kind, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Person, int64, error)
	Create(ctx context.Context, p Person) (Person, error)
	Update(ctx context.Context, p Person) (Person, error)
	Delete(ctx context.Context, ref Ref) error
}
