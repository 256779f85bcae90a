package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/document"
)

const documentColumns = `id, tenant_id, person_id, person_kind, file_name, mime_type, size_bytes, created_at`

type DocumentRepository struct{}

func NewDocumentRepository() document.Repository {
	return &DocumentRepository{}
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get document")
	}
	return d, nil
}

func (r *DocumentRepository) ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*document.Document, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := tx.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE person_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, personID, tenantID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan document row")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) (*document.Document, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO documents (id, tenant_id, person_id, person_kind, file_name, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING `+documentColumns,
		d.ID, tenantID, d.Person.ID(), string(d.Person.Kind()), d.FileName, d.MimeType, d.SizeBytes,
	)
	created, err := scanDocument(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
	return created, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var (
		d        document.Document
		personID uuid.UUID
		kindRaw  string
	)
	if err := row.Scan(
		&d.ID, &d.TenantID, &personID, &kindRaw, &d.FileName, &d.MimeType, &d.SizeBytes, &d.CreatedAt,
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
	d.Person = ref
	return &d, nil
}
