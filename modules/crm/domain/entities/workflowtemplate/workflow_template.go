package workflowtemplate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("workflow template not found")

// WorkflowTemplate is reference data. System-owned templates (IsSystem) are
// visible to every tenant; the rest are tenant-scoped like any other entity.
type WorkflowTemplate struct {
	ID         uuid.UUID
	TenantID   uuid.UUID // uuid.Nil for system templates
	Name       string
	Definition json.RawMessage
	IsSystem   bool
	CreatedAt  time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*WorkflowTemplate, error)
	// List returns system templates plus the caller's tenant templates.
	List(ctx context.Context) ([]*WorkflowTemplate, error)
	Create(ctx context.Context, t *WorkflowTemplate) (*WorkflowTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
