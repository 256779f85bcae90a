package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/activity"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type ActivityService struct {
	repo   activity.Repository
	outbox outbox.Publisher
}

func NewActivityService(repo activity.Repository, pub outbox.Publisher) *ActivityService {
	return &ActivityService{repo: repo, outbox: pub}
}

func (s *ActivityService) GetByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*activity.Activity, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *ActivityService) ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*activity.Activity, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*activity.Activity, error) {
		return s.repo.ListByPerson(txCtx, personID, limit)
	})
}

func (s *ActivityService) Create(ctx context.Context, data *activity.Activity) (*activity.Activity, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*activity.Activity, error) {
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, created.Person, "activity_created"); err != nil {
			return nil, err
		}
		return created, nil
	})
}

func (s *ActivityService) Update(ctx context.Context, data *activity.Activity) (*activity.Activity, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*activity.Activity, error) {
		updated, err := s.repo.Update(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, updated.Person, "activity_updated"); err != nil {
			return nil, err
		}
		return updated, nil
	})
}

func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return enqueueRefresh(txCtx, s.outbox, existing.Person, "activity_deleted")
	})
}
