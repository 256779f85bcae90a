package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
)

const personColumns = `id, tenant_id, first_name, last_name, email, phone, status, created_at, updated_at`

type PersonRepository struct{}

func NewPersonRepository() person.Repository {
	return &PersonRepository{}
}

func (r *PersonRepository) GetByRef(ctx context.Context, ref person.Ref) (person.Person, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return person.Person{}, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1 AND tenant_id = $2`,
		personColumns, personTable(ref.Kind()),
	)
	row := tx.QueryRow(ctx, query, ref.ID(), tenantID)
	p, err := scanPerson(row, ref.Kind())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, errors.Wrap(err, "failed to get person")
	}
	return p, nil
}

func (r *PersonRepository) ResolveKind(ctx context.Context, id uuid.UUID) (person.Kind, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return "", err
	}

	var isLead, isContact bool
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM leads WHERE id = $1 AND tenant_id = $2),
			EXISTS (SELECT 1 FROM contacts WHERE id = $1 AND tenant_id = $2)
	`, id, tenantID).Scan(&isLead, &isContact)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve person kind")
	}

	switch {
	case isLead && isContact:
		return "", fmt.Errorf("person %s exists in both entity sets", id)
	case isLead:
		return person.KindLead, nil
	case isContact:
		return person.KindContact, nil
	default:
		return "", person.ErrNotFound
	}
}

func (r *PersonRepository) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if params == nil {
		params = &person.FindParams{}
	}
	kind := params.Kind
	if kind == "" {
		kind = person.KindLead
	}

	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	table := personTable(kind)
	q := strings.TrimSpace(params.Q)
	pattern := "%" + q + "%"

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1
		  AND ($2 = '' OR first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3)
		ORDER BY created_at DESC
		OFFSET $4 LIMIT $5
	`, personColumns, table)

	rows, err := tx.Query(ctx, query, tenantID, q, pattern, offset, limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list persons")
	}
	defer rows.Close()

	var out []person.Person
	for rows.Next() {
		p, err := scanPerson(rows, kind)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan person row")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "row iteration error")
	}

	countQuery := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE tenant_id = $1
		  AND ($2 = '' OR first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3)
	`, table)
	var total int64
	if err := tx.QueryRow(ctx, countQuery, tenantID, q, pattern).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count persons")
	}

	return out, total, nil
}

func (r *PersonRepository) Create(ctx context.Context, p person.Person) (person.Person, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return person.Person{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, first_name, last_name, email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING %s
	`, personTable(p.Kind()), personColumns)

	row := tx.QueryRow(ctx, query,
		p.ID(), tenantID, p.FirstName(), p.LastName(), p.Email(), p.Phone(), string(p.Status()),
	)
	created, err := scanPerson(row, p.Kind())
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to create person")
	}
	return created, nil
}

func (r *PersonRepository) Update(ctx context.Context, p person.Person) (person.Person, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return person.Person{}, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET first_name = $1, last_name = $2, email = $3, phone = $4, status = $5, updated_at = now()
		WHERE id = $6 AND tenant_id = $7
		RETURNING %s
	`, personTable(p.Kind()), personColumns)

	row := tx.QueryRow(ctx, query,
		p.FirstName(), p.LastName(), p.Email(), p.Phone(), string(p.Status()), p.ID(), tenantID,
	)
	updated, err := scanPerson(row, p.Kind())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, errors.Wrap(err, "failed to update person")
	}
	return updated, nil
}

func (r *PersonRepository) Delete(ctx context.Context, ref person.Ref) error {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND tenant_id = $2`, personTable(ref.Kind()))
	tag, err := tx.Exec(ctx, query, ref.ID(), tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete person")
	}
	if tag.RowsAffected() == 0 {
		return person.ErrNotFound
	}
	return nil
}

func scanPerson(row pgx.Row, kind person.Kind) (person.Person, error) {
	var (
		id, tenantID         uuid.UUID
		firstName, lastName  string
		email, phone         sql.NullString
		status               string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&id, &tenantID, &firstName, &lastName, &email, &phone, &status, &createdAt, &updatedAt,
	); err != nil {
		return person.Person{}, err
	}
	return person.Hydrate(
		kind, tenantID, id, firstName, lastName,
		email.String, phone.String,
		person.Status(status), createdAt, updatedAt,
	), nil
}
