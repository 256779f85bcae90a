package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/activity"
)

const activityColumns = `id, tenant_id, person_id, person_kind, activity_type, subject, body, occurred_at, created_at`

type ActivityRepository struct{}

func NewActivityRepository() activity.Repository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, activity.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get activity")
	}
	return a, nil
}

func (r *ActivityRepository) ListByPerson(ctx context.Context, personID uuid.UUID, limit int) ([]*activity.Activity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := tx.Query(ctx, `
		SELECT `+activityColumns+` FROM activities
		WHERE person_id = $1 AND tenant_id = $2
		ORDER BY occurred_at DESC
		LIMIT $3
	`, personID, tenantID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activities")
	}
	defer rows.Close()

	var out []*activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan activity row")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) (*activity.Activity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO activities (id, tenant_id, person_id, person_kind, activity_type, subject, body, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), now())
		RETURNING `+activityColumns,
		a.ID, tenantID, a.Person.ID(), string(a.Person.Kind()), a.Type, a.Subject, a.Body, nullTime(a.OccurredAt),
	)
	created, err := scanActivity(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create activity")
	}
	return created, nil
}

func (r *ActivityRepository) Update(ctx context.Context, a *activity.Activity) (*activity.Activity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE activities
		SET activity_type = $1, subject = $2, body = $3, occurred_at = $4
		WHERE id = $5 AND tenant_id = $6
		RETURNING `+activityColumns,
		a.Type, a.Subject, a.Body, a.OccurredAt, a.ID, tenantID,
	)
	updated, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, activity.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update activity")
	}
	return updated, nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete activity")
	}
	if tag.RowsAffected() == 0 {
		return activity.ErrNotFound
	}
	return nil
}

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var (
		a        activity.Activity
		personID uuid.UUID
		kindRaw  string
	)
	if err := row.Scan(
		&a.ID, &a.TenantID, &personID, &kindRaw, &a.Type, &a.Subject, &a.Body, &a.OccurredAt, &a.CreatedAt,
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
	a.Person = ref
	return &a, nil
}
