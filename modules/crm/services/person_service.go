package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/eventbus"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type PersonService struct {
	repo      person.Repository
	publisher eventbus.EventBus
	outbox    outbox.Publisher
}

func NewPersonService(repo person.Repository, publisher eventbus.EventBus, pub outbox.Publisher) *PersonService {
	return &PersonService{
		repo:      repo,
		publisher: publisher,
		outbox:    pub,
	}
}

func (s *PersonService) GetByRef(ctx context.Context, ref person.Ref) (person.Person, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (person.Person, error) {
		return s.repo.GetByRef(txCtx, ref)
	})
}

func (s *PersonService) ResolveKind(ctx context.Context, id uuid.UUID) (person.Kind, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (person.Kind, error) {
		return s.repo.ResolveKind(txCtx, id)
	})
}

func (s *PersonService) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	var total int64
	people, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]person.Person, error) {
		var innerErr error
		var out []person.Person
		out, total, innerErr = s.repo.GetPaginated(txCtx, params)
		return out, innerErr
	})
	return people, total, err
}

func (s *PersonService) Create(ctx context.Context, data person.Person) (person.Person, error) {
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (person.Person, error) {
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return person.Person{}, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, created.Ref(), "person_created"); err != nil {
			return person.Person{}, err
		}
		return created, nil
	})
	if err != nil {
		return person.Person{}, err
	}

	s.publisher.Publish(person.NewCreatedEvent(created))
	return created, nil
}

func (s *PersonService) Update(ctx context.Context, data person.Person) (person.Person, error) {
	updated, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (person.Person, error) {
		return s.repo.Update(txCtx, data)
	})
	if err != nil {
		return person.Person{}, err
	}

	// Identity-only change: the profile fast path handles it without a
	// full recompute.
	s.publisher.Publish(person.NewUpdatedEvent(updated))
	return updated, nil
}

func (s *PersonService) Delete(ctx context.Context, ref person.Ref) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, ref); err != nil {
			return err
		}
		// The refresh observes the person is gone and removes the
		// stale profile row.
		return enqueueRefresh(txCtx, s.outbox, ref, "person_deleted")
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(person.NewDeletedEvent(tenantID, ref))
	return nil
}
