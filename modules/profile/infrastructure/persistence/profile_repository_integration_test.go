package persistence_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/activity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/document"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/note"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/opportunity"
	crmpersistence "github.com/aisha-ai/aisha-crm/modules/crm/infrastructure/persistence"
	"github.com/aisha-ai/aisha-crm/modules/profile/domain/personprofile"
	"github.com/aisha-ai/aisha-crm/modules/profile/infrastructure/persistence"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/itf"
)

func TestProfileRepository_Refresh(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	personRepo := crmpersistence.NewPersonRepository()
	activityRepo := crmpersistence.NewActivityRepository()
	noteRepo := crmpersistence.NewNoteRepository()
	documentRepo := crmpersistence.NewDocumentRepository()
	opportunityRepo := crmpersistence.NewOpportunityRepository()
	profileRepo := persistence.NewProfileRepository(10)

	var lead person.Person
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var err error
		lead, err = personRepo.Create(txCtx,
			person.New(person.KindLead, tenantID, "Jane", "Doe").
				WithContactInfo("jane@acme.test", "+15550100"))
		if err != nil {
			return err
		}

		for i := 0; i < 12; i++ {
			_, err = activityRepo.Create(txCtx, &activity.Activity{
				Person:     lead.Ref(),
				Type:       "call",
				Subject:    fmt.Sprintf("call %d", i),
				OccurredAt: base.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				return err
			}
		}
		for i := 0; i < 3; i++ {
			if _, err = noteRepo.Create(txCtx, &note.Note{
				Person: lead.Ref(),
				Body:   fmt.Sprintf("note %d", i),
			}); err != nil {
				return err
			}
		}
		if _, err = documentRepo.Create(txCtx, &document.Document{
			Person:   lead.Ref(),
			FileName: "contract.pdf",
			MimeType: "application/pdf",
		}); err != nil {
			return err
		}

		for _, stage := range []opportunity.Stage{
			opportunity.StageProspecting, opportunity.StageProposal, opportunity.StageClosedWon,
		} {
			if _, err = opportunityRepo.Create(txCtx, &opportunity.Opportunity{
				Person: lead.Ref(),
				Name:   "deal " + string(stage),
				Stage:  stage,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return profileRepo.Refresh(txCtx, lead.ID())
	})
	require.NoError(t, err)
	require.Equal(t, personprofile.ResultRefreshed, result)

	p, err := profileRepo.GetByPersonID(ctx, lead.ID())
	require.NoError(t, err)

	assert.Equal(t, lead.ID(), p.PersonID)
	assert.Equal(t, tenantID, p.TenantID)
	assert.Equal(t, person.KindLead, p.Kind)
	assert.Equal(t, "Jane Doe", p.DisplayName)
	assert.Equal(t, "jane@acme.test", p.Email)
	assert.Equal(t, "+15550100", p.Phone)

	require.Len(t, p.Activities, 10)
	// newest first, so the two oldest fall off the end
	assert.Equal(t, "call 11", p.Activities[0].Subject)
	assert.Equal(t, "call 2", p.Activities[9].Subject)

	require.NotNil(t, p.LastActivityAt)
	assert.True(t, p.LastActivityAt.Equal(base.Add(11*time.Minute)))

	assert.Len(t, p.Notes, 3)
	assert.Len(t, p.RecentDocuments, 1)
	assert.Equal(t, "contract.pdf", p.RecentDocuments[0].FileName)

	assert.Equal(t, int64(2), p.OpenOpportunityCount)
	assert.Contains(t, p.OpportunityStageHist, "closed_won")
	assert.Len(t, p.OpportunityStageHist, 3)
}

func TestProfileRepository_Refresh_MonotonicUpdatedAt(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	personRepo := crmpersistence.NewPersonRepository()
	profileRepo := persistence.NewProfileRepository(10)

	var lead person.Person
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var err error
		lead, err = personRepo.Create(txCtx, person.New(person.KindLead, tenantID, "Jane", "Doe"))
		return err
	}))

	refresh := func() *personprofile.PersonProfile {
		t.Helper()
		result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
			return profileRepo.Refresh(txCtx, lead.ID())
		})
		require.NoError(t, err)
		require.Equal(t, personprofile.ResultRefreshed, result)

		p, err := profileRepo.GetByPersonID(ctx, lead.ID())
		require.NoError(t, err)
		return p
	}

	first := refresh()
	second := refresh()
	third := refresh()

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, third.UpdatedAt.After(second.UpdatedAt))
}

func TestProfileRepository_Refresh_LockContention(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	personRepo := crmpersistence.NewPersonRepository()
	profileRepo := persistence.NewProfileRepository(10)

	var lead person.Person
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var err error
		lead, err = personRepo.Create(txCtx, person.New(person.KindLead, tenantID, "Jane", "Doe"))
		return err
	}))

	// First transaction takes the per-person lock and stays open.
	holder, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()

	holderCtx := composables.WithTx(ctx, holder)
	result, err := profileRepo.Refresh(holderCtx, lead.ID())
	require.NoError(t, err)
	require.Equal(t, personprofile.ResultRefreshed, result)

	// A concurrent refresh observes the held lock and skips without error.
	other, err := d.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = other.Rollback(ctx) }()

	otherCtx := composables.WithTx(ctx, other)
	result, err = profileRepo.Refresh(otherCtx, lead.ID())
	require.NoError(t, err)
	assert.Equal(t, personprofile.ResultSkipped, result)

	// Releasing the holder makes the lock available again.
	require.NoError(t, holder.Commit(ctx))
	require.NoError(t, other.Rollback(ctx))

	result, err = composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return profileRepo.Refresh(txCtx, lead.ID())
	})
	require.NoError(t, err)
	assert.Equal(t, personprofile.ResultRefreshed, result)
}

func TestProfileRepository_Refresh_OrphanCleanup(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	personRepo := crmpersistence.NewPersonRepository()
	profileRepo := persistence.NewProfileRepository(10)

	var contact person.Person
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var err error
		contact, err = personRepo.Create(txCtx, person.New(person.KindContact, tenantID, "John", "Smith"))
		return err
	}))

	result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return profileRepo.Refresh(txCtx, contact.ID())
	})
	require.NoError(t, err)
	require.Equal(t, personprofile.ResultRefreshed, result)

	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return personRepo.Delete(txCtx, contact.Ref())
	}))

	result, err = composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return profileRepo.Refresh(txCtx, contact.ID())
	})
	require.NoError(t, err)
	assert.Equal(t, personprofile.ResultOrphanCleaned, result)

	_, err = profileRepo.GetByPersonID(ctx, contact.ID())
	require.ErrorIs(t, err, personprofile.ErrNotFound)

	// Refreshing an id that never existed cleans up to the same end state.
	result, err = composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return profileRepo.Refresh(txCtx, uuid.New())
	})
	require.NoError(t, err)
	assert.Equal(t, personprofile.ResultOrphanCleaned, result)
}

func TestProfileRepository_UpsertIdentity(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	personRepo := crmpersistence.NewPersonRepository()
	profileRepo := persistence.NewProfileRepository(10)

	var contact person.Person
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var err error
		contact, err = personRepo.Create(txCtx,
			person.New(person.KindContact, tenantID, "John", "Smith").
				WithContactInfo("john@acme.test", ""))
		if err != nil {
			return err
		}
		return profileRepo.UpsertIdentity(txCtx, contact)
	}))

	p, err := profileRepo.GetByPersonID(ctx, contact.ID())
	require.NoError(t, err)
	assert.Equal(t, "John Smith", p.DisplayName)
	assert.Equal(t, "john@acme.test", p.Email)
	assert.Equal(t, person.KindContact, p.Kind)
	assert.Empty(t, p.Activities)
	assert.Zero(t, p.OpenOpportunityCount)

	firstUpdatedAt := p.UpdatedAt

	renamed := contact.WithName("Johnny", "Smith")
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if _, err := personRepo.Update(txCtx, renamed); err != nil {
			return err
		}
		return profileRepo.UpsertIdentity(txCtx, renamed)
	}))

	p, err = profileRepo.GetByPersonID(ctx, contact.ID())
	require.NoError(t, err)
	assert.Equal(t, "Johnny Smith", p.DisplayName)
	assert.True(t, p.UpdatedAt.After(firstUpdatedAt))
}

func TestProfileRepository_Refresh_AmbiguousKind(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	personRepo := crmpersistence.NewPersonRepository()
	profileRepo := persistence.NewProfileRepository(10)

	var lead person.Person
	require.NoError(t, composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var err error
		lead, err = personRepo.Create(txCtx, person.New(person.KindLead, tenantID, "Jane", "Doe"))
		return err
	}))

	// The same id surfacing in both entity sets is data corruption and must
	// never be papered over as one kind or the other.
	_, err := d.Pool.Exec(context.Background(), `
		INSERT INTO contacts (id, tenant_id, first_name, last_name)
		VALUES ($1, $2, 'Jane', 'Doe')
	`, lead.ID(), tenantID)
	require.NoError(t, err)

	_, err = composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return profileRepo.Refresh(txCtx, lead.ID())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both entity sets")
}
