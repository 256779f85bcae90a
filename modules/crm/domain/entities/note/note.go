package note

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
)

var ErrNotFound = errors.New("note not found")

type Note struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Person    person.Ref
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*Note, error)
	Create(ctx context.Context, n *Note) (*Note, error)
	Update(ctx context.Context, n *Note) (*Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
