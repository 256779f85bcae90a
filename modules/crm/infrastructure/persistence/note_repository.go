package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/note"
)

const noteColumns = `id, tenant_id, person_id, person_kind, body, created_at, updated_at`

type NoteRepository struct{}

func NewNoteRepository() note.Repository {
	return &NoteRepository{}
}

func (r *NoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*note.Note, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, note.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get note")
	}
	return n, nil
}

func (r *NoteRepository) ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*note.Note, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := tx.Query(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE person_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, personID, tenantID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	var out []*note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan note row")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NoteRepository) Create(ctx context.Context, n *note.Note) (*note.Note, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO notes (id, tenant_id, person_id, person_kind, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING `+noteColumns,
		n.ID, tenantID, n.Person.ID(), string(n.Person.Kind()), n.Body,
	)
	created, err := scanNote(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}
	return created, nil
}

func (r *NoteRepository) Update(ctx context.Context, n *note.Note) (*note.Note, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE notes
		SET body = $1, updated_at = now()
		WHERE id = $2 AND tenant_id = $3
		RETURNING `+noteColumns,
		n.Body, n.ID, tenantID,
	)
	updated, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, note.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update note")
	}
	return updated, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	if tag.RowsAffected() == 0 {
		return note.ErrNotFound
	}
	return nil
}

func scanNote(row pgx.Row) (*note.Note, error) {
	var (
		n        note.Note
		personID uuid.UUID
		kindRaw  string
	)
	if err := row.Scan(
		&n.ID, &n.TenantID, &personID, &kindRaw, &n.Body, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	kind, err := person.ParseKind(kindRaw)
	if err != nil {
		return nil, err
	}
	ref, err := person.NewRef(kind, personID)
	if err != nil {
		return nil, err
	}
	n.Person = ref
	return &n, nil
}
