package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/opportunity"
)

const opportunityColumns = `id, tenant_id, person_id, person_kind, name, stage, amount_cents, created_at, updated_at`

type OpportunityRepository struct{}

func NewOpportunityRepository() opportunity.Repository {
	return &OpportunityRepository{}
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*opportunity.Opportunity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	o, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, opportunity.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get opportunity")
	}
	return o, nil
}

func (r *OpportunityRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*opportunity.Opportunity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+opportunityColumns+` FROM opportunities
		WHERE person_id = $1 AND tenant_id = $2
		ORDER BY updated_at DESC
	`, personID, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list opportunities")
	}
	defer rows.Close()

	var out []*opportunity.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan opportunity row")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OpportunityRepository) CountOpenByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM opportunities
		WHERE person_id = $1 AND tenant_id = $2 AND stage NOT IN ('closed_won', 'closed_lost')
	`, personID, tenantID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count open opportunities")
	}
	return count, nil
}

func (r *OpportunityRepository) Create(ctx context.Context, o *opportunity.Opportunity) (*opportunity.Opportunity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO opportunities (id, tenant_id, person_id, person_kind, name, stage, amount_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+opportunityColumns,
		o.ID, tenantID, o.Person.ID(), string(o.Person.Kind()), o.Name, string(o.Stage), o.AmountCents,
	)
	created, err := scanOpportunity(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create opportunity")
	}
	return created, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, o *opportunity.Opportunity) (*opportunity.Opportunity, error) {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE opportunities
		SET name = $1, stage = $2, amount_cents = $3, updated_at = now()
		WHERE id = $4 AND tenant_id = $5
		RETURNING `+opportunityColumns,
		o.Name, string(o.Stage), o.AmountCents, o.ID, tenantID,
	)
	updated, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, opportunity.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update opportunity")
	}
	return updated, nil
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := tenantTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM opportunities WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to delete opportunity")
	}
	if tag.RowsAffected() == 0 {
		return opportunity.ErrNotFound
	}
	return nil
}

func scanOpportunity(row pgx.Row) (*opportunity.Opportunity, error) {
	var (
		o        opportunity.Opportunity
		personID uuid.UUID
		kindRaw  string
		stageRaw string
	)
	if err := row.Scan(
		&o.ID, &o.TenantID, &personID, &kindRaw, &o.Name, &stageRaw, &o.AmountCents, &o.CreatedAt, &o.UpdatedAt,
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
	stage, err := opportunity.ParseStage(stageRaw)
	if err != nil {
		return nil, err
	}
	o.Person = ref
	o.Stage = stage
	return &o, nil
}
