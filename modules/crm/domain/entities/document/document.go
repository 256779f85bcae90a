package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
)

var ErrNotFound = errors.New("document not found")

type Document struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Person    person.Ref
	FileName  string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*Document, error)
	Create(ctx context.Context, d *Document) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
