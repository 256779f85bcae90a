package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/profile/domain/personprofile"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/pglock"
)

// lockNamespace keeps profile refresh locks from colliding with other
// advisory lock users on the same database.
const lockNamespace = "person_profile:"

type ProfileRepository struct {
	listLimit int
}

func NewProfileRepository(listLimit int) personprofile.Repository {
	if listLimit <= 0 {
		listLimit = 10
	}
	return &ProfileRepository{listLimit: listLimit}
}

// Refresh recomputes one profile row from current source data. It must run
// inside a transaction: the advisory lock is transaction-scoped and the
// upsert is a single statement, so a failed refresh leaves no partial write.
// Lock contention is reported as ResultSkipped, never as an error: the
// concurrent holder recomputes from source state at least as fresh as ours.
func (r *ProfileRepository) Refresh(ctx context.Context, personID uuid.UUID) (personprofile.RefreshResult, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return "", err
	}

	ok, err := pglock.TryXact(ctx, tx, pglock.Key(lockNamespace+personID.String()))
	if err != nil {
		return "", errors.Wrap(err, "failed to acquire refresh lock")
	}
	if !ok {
		return personprofile.ResultSkipped, nil
	}

	var isLead, isContact bool
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM leads WHERE id = $1),
			EXISTS (SELECT 1 FROM contacts WHERE id = $1)
	`, personID).Scan(&isLead, &isContact)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve person kind")
	}

	if isLead && isContact {
		return "", fmt.Errorf("person %s exists in both entity sets", personID)
	}
	if !isLead && !isContact {
		if _, err := tx.Exec(ctx, `DELETE FROM person_profiles WHERE person_id = $1`, personID); err != nil {
			return "", errors.Wrap(err, "failed to clean up orphaned profile")
		}
		return personprofile.ResultOrphanCleaned, nil
	}

	kind := person.KindLead
	table := "leads"
	if isContact {
		kind = person.KindContact
		table = "contacts"
	}

	query := fmt.Sprintf(refreshUpsertQuery, table)
	if _, err := tx.Exec(ctx, query, personID, string(kind), r.listLimit); err != nil {
		return "", errors.Wrap(err, "failed to upsert person profile")
	}
	return personprofile.ResultRefreshed, nil
}

// refreshUpsertQuery recomputes every derived field in one atomic statement.
// The bounded jsonb lists are capped at $3 entries, newest first.
const refreshUpsertQuery = `
INSERT INTO person_profiles (
	person_id, tenant_id, kind, display_name, email, phone,
	last_activity_at, open_opportunity_count,
	activities, notes, recent_documents, opportunity_stage_history, updated_at
)
SELECT
	p.id,
	p.tenant_id,
	$2,
	trim(concat_ws(' ', p.first_name, p.last_name)),
	COALESCE(p.email, ''),
	COALESCE(p.phone, ''),
	(SELECT max(a.occurred_at) FROM activities a WHERE a.person_id = p.id),
	(SELECT count(*) FROM opportunities o
	   WHERE o.person_id = p.id AND o.stage NOT IN ('closed_won', 'closed_lost')),
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', x.id, 'type', x.activity_type, 'subject', x.subject, 'occurred_at', x.occurred_at
		) ORDER BY x.occurred_at DESC)
		FROM (
			SELECT a.id, a.activity_type, a.subject, a.occurred_at
			FROM activities a
			WHERE a.person_id = p.id
			ORDER BY a.occurred_at DESC
			LIMIT $3
		) x
	), '[]'::jsonb),
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', x.id, 'body', x.body, 'created_at', x.created_at
		) ORDER BY x.created_at DESC)
		FROM (
			SELECT n.id, n.body, n.created_at
			FROM notes n
			WHERE n.person_id = p.id
			ORDER BY n.created_at DESC
			LIMIT $3
		) x
	), '[]'::jsonb),
	COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', x.id, 'file_name', x.file_name, 'created_at', x.created_at
		) ORDER BY x.created_at DESC)
		FROM (
			SELECT d.id, d.file_name, d.created_at
			FROM documents d
			WHERE d.person_id = p.id
			ORDER BY d.created_at DESC
			LIMIT $3
		) x
	), '[]'::jsonb),
	COALESCE((
		SELECT jsonb_agg(to_jsonb(s.stage) ORDER BY s.last_touched DESC)
		FROM (
			SELECT o.stage, max(o.updated_at) AS last_touched
			FROM opportunities o
			WHERE o.person_id = p.id
			GROUP BY o.stage
		) s
	), '[]'::jsonb),
	clock_timestamp()
FROM %s p
WHERE p.id = $1
ON CONFLICT (person_id) DO UPDATE SET
	tenant_id = EXCLUDED.tenant_id,
	kind = EXCLUDED.kind,
	display_name = EXCLUDED.display_name,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	last_activity_at = EXCLUDED.last_activity_at,
	open_opportunity_count = EXCLUDED.open_opportunity_count,
	activities = EXCLUDED.activities,
	notes = EXCLUDED.notes,
	recent_documents = EXCLUDED.recent_documents,
	opportunity_stage_history = EXCLUDED.opportunity_stage_history,
	updated_at = GREATEST(EXCLUDED.updated_at, person_profiles.updated_at + interval '1 microsecond')
`

func (r *ProfileRepository) GetByPersonID(ctx context.Context, personID uuid.UUID) (*personprofile.PersonProfile, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		p          personprofile.PersonProfile
		kindRaw    string
		activities json.RawMessage
		notes      json.RawMessage
		documents  json.RawMessage
		stages     json.RawMessage
	)
	err = tx.QueryRow(ctx, `
		SELECT person_id, tenant_id, kind, display_name, email, phone,
		       last_activity_at, open_opportunity_count,
		       activities, notes, recent_documents, opportunity_stage_history, updated_at
		FROM person_profiles
		WHERE person_id = $1
	`, personID).Scan(
		&p.PersonID, &p.TenantID, &kindRaw, &p.DisplayName, &p.Email, &p.Phone,
		&p.LastActivityAt, &p.OpenOpportunityCount,
		&activities, &notes, &documents, &stages, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, personprofile.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get person profile")
	}

	kind, err := person.ParseKind(kindRaw)
	if err != nil {
		return nil, err
	}
	p.Kind = kind

	if p.Activities, err = personprofile.DecodeEntries[personprofile.ActivityEntry](activities); err != nil {
		return nil, errors.Wrap(err, "failed to decode activities")
	}
	if p.Notes, err = personprofile.DecodeEntries[personprofile.NoteEntry](notes); err != nil {
		return nil, errors.Wrap(err, "failed to decode notes")
	}
	if p.RecentDocuments, err = personprofile.DecodeEntries[personprofile.DocumentEntry](documents); err != nil {
		return nil, errors.Wrap(err, "failed to decode documents")
	}
	if p.OpportunityStageHist, err = personprofile.DecodeEntries[string](stages); err != nil {
		return nil, errors.Wrap(err, "failed to decode stage history")
	}

	return &p, nil
}

func (r *ProfileRepository) UpsertIdentity(ctx context.Context, p person.Person) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO person_profiles (
			person_id, tenant_id, kind, display_name, email, phone,
			open_opportunity_count, activities, notes, recent_documents,
			opportunity_stage_history, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, 0, '[]', '[]', '[]', '[]', clock_timestamp())
		ON CONFLICT (person_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			updated_at = GREATEST(EXCLUDED.updated_at, person_profiles.updated_at + interval '1 microsecond')
	`, p.ID(), p.TenantID(), string(p.Kind()), p.DisplayName(), p.Email(), p.Phone())
	if err != nil {
		return errors.Wrap(err, "failed to upsert profile identity")
	}
	return nil
}

func (r *ProfileRepository) DeleteByPersonID(ctx context.Context, personID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM person_profiles WHERE person_id = $1`, personID)
	if err != nil {
		return errors.Wrap(err, "failed to delete person profile")
	}
	return nil
}
