package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/opportunity"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type OpportunityService struct {
	repo   opportunity.Repository
	outbox outbox.Publisher
}

func NewOpportunityService(repo opportunity.Repository, pub outbox.Publisher) *OpportunityService {
	return &OpportunityService{repo: repo, outbox: pub}
}

func (s *OpportunityService) GetByID(ctx context.Context, id uuid.UUID) (*opportunity.Opportunity, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*opportunity.Opportunity, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *OpportunityService) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*opportunity.Opportunity, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*opportunity.Opportunity, error) {
		return s.repo.ListByPerson(txCtx, personID)
	})
}

func (s *OpportunityService) CountOpenByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.CountOpenByPerson(txCtx, personID)
	})
}

func (s *OpportunityService) Create(ctx context.Context, data *opportunity.Opportunity) (*opportunity.Opportunity, error) {
	if _, err := opportunity.ParseStage(string(data.Stage)); err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*opportunity.Opportunity, error) {
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, created.Person, "opportunity_created"); err != nil {
			return nil, err
		}
		return created, nil
	})
}

func (s *OpportunityService) Update(ctx context.Context, data *opportunity.Opportunity) (*opportunity.Opportunity, error) {
	if _, err := opportunity.ParseStage(string(data.Stage)); err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*opportunity.Opportunity, error) {
		updated, err := s.repo.Update(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, updated.Person, "opportunity_updated"); err != nil {
			return nil, err
		}
		return updated, nil
	})
}

func (s *OpportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return enqueueRefresh(txCtx, s.outbox, existing.Person, "opportunity_deleted")
	})
}
