package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/note"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type NoteService struct {
	repo   note.Repository
	outbox outbox.Publisher
}

func NewNoteService(repo note.Repository, pub outbox.Publisher) *NoteService {
	return &NoteService{repo: repo, outbox: pub}
}

func (s *NoteService) GetByID(ctx context.Context, id uuid.UUID) (*note.Note, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*note.Note, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *NoteService) ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*note.Note, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*note.Note, error) {
		return s.repo.ListByPerson(txCtx, personID, limit)
	})
}

func (s *NoteService) Create(ctx context.Context, data *note.Note) (*note.Note, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*note.Note, error) {
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, created.Person, "note_created"); err != nil {
			return nil, err
		}
		return created, nil
	})
}

func (s *NoteService) Update(ctx context.Context, data *note.Note) (*note.Note, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*note.Note, error) {
		updated, err := s.repo.Update(txCtx, data)
		if err != nil {
			return nil, err
		}
		if err := enqueueRefresh(txCtx, s.outbox, updated.Person, "note_updated"); err != nil {
			return nil, err
		}
		return updated, nil
	})
}

func (s *NoteService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return enqueueRefresh(txCtx, s.outbox, existing.Person, "note_deleted")
	})
}
