package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
)

var ErrNotFound = errors.New("activity not found")

type Activity struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Person     person.Ref
	Type       string // call, email, meeting, task
	Subject    string
	Body       string
	OccurredAt time.Time
	CreatedAt  time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*Activity, error)
	Create(ctx context.Context, a *Activity) (*Activity, error)
	Update(ctx context.Context, a *Activity) (*Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
