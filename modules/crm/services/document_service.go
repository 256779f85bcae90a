package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/document"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type DocumentService struct {
	repo   document.Repository
	outbox outbox.Publisher
}

func NewDocumentService(repo document.Repository, pub outbox.Publisher) *DocumentService {
	return &DocumentService{repo: repo, outbox: pub}
}

func (s *DocumentService) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*document.Document, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *DocumentService) ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*document.Document, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*document.Document, error) {
		return s.repo.ListByPerson(txCtx, personID, limit)
	})
}

func (s *DocumentService) Create(ctx context.Context, data *document.Document) (*document.Document, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*document.Document, error) {
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, created.Person, "document_created"); err != nil {
			return nil, err
		}
		return created, nil
	})
}

func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return enqueueRefresh(txCtx, s.outbox, existing.Person, "document_deleted")
	})
}
