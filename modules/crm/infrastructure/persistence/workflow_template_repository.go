package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/workflowtemplate"
)

const workflowTemplateColumns = `id, tenant_id, name, definition, is_system, created_at`

type WorkflowTemplateRepository struct{}

func NewWorkflowTemplateRepository() workflowtemplate.Repository {
	return &WorkflowTemplateRepository{}
}

func (r *WorkflowTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*workflowtemplate.WorkflowTemplate, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	// System templates are readable by every tenant; the RLS policy allows
	// the same two paths.
	row := tx.QueryRow(ctx, `
		SELECT `+workflowTemplateColumns+` FROM workflow_templates
		WHERE id = $1 AND (is_system OR tenant_id = $2)
	`, id, tenantID)
	t, err := scanWorkflowTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflowtemplate.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get workflow template")
	}
	return t, nil
}

func (r *WorkflowTemplateRepository) List(ctx context.Context) ([]*workflowtemplate.WorkflowTemplate, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+workflowTemplateColumns+` FROM workflow_templates
		WHERE is_system OR tenant_id = $1
		ORDER BY is_system DESC, name
	`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workflow templates")
	}
	defer rows.Close()

	var out []*workflowtemplate.WorkflowTemplate
	for rows.Next() {
		t, err := scanWorkflowTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan workflow template row")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *WorkflowTemplateRepository) Create(ctx context.Context, t *workflowtemplate.WorkflowTemplate) (*workflowtemplate.WorkflowTemplate, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	var owner *uuid.UUID
	if !t.IsSystem {
		owner = &tenantID
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO workflow_templates (id, tenant_id, name, definition, is_system, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+workflowTemplateColumns,
		t.ID, owner, t.Name, t.Definition, t.IsSystem,
	)
	created, err := scanWorkflowTemplate(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create workflow template")
	}
	return created, nil
}

func (r *WorkflowTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM workflow_templates WHERE id = $1 AND tenant_id = $2 AND NOT is_system`,
		id, tenantID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete workflow template")
	}
	if tag.RowsAffected() == 0 {
		return workflowtemplate.ErrNotFound
	}
	return nil
}

func scanWorkflowTemplate(row pgx.Row) (*workflowtemplate.WorkflowTemplate, error) {
	var (
		t     workflowtemplate.WorkflowTemplate
		owner *uuid.UUID
	)
	if err := row.Scan(
		&t.ID, &owner, &t.Name, &t.Definition, &t.IsSystem, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	if owner != nil {
		t.TenantID = *owner
	}
	return &t, nil
}
