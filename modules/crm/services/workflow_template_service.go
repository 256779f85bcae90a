package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/workflowtemplate"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
)

type WorkflowTemplateService struct {
	repo workflowtemplate.Repository
}

func NewWorkflowTemplateService(repo workflowtemplate.Repository) *WorkflowTemplateService {
	return &WorkflowTemplateService{repo: repo}
}

func (s *WorkflowTemplateService) GetByID(ctx context.Context, id uuid.UUID) (*workflowtemplate.WorkflowTemplate, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*workflowtemplate.WorkflowTemplate, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *WorkflowTemplateService) List(ctx context.Context) ([]*workflowtemplate.WorkflowTemplate, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*workflowtemplate.WorkflowTemplate, error) {
		return s.repo.List(txCtx)
	})
}

func (s *WorkflowTemplateService) Create(ctx context.Context, data *workflowtemplate.WorkflowTemplate) (*workflowtemplate.WorkflowTemplate, error) {
	// Only unrestricted credentials may register system templates.
	if data.IsSystem && !composables.UseUnrestricted(ctx) {
		return nil, errors.New("system templates require an unrestricted credential")
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*workflowtemplate.WorkflowTemplate, error) {
		return s.repo.Create(txCtx, data)
	})
}

func (s *WorkflowTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
