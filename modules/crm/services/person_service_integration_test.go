package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/activity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/opportunity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/events"
	crmpersistence "github.com/aisha-ai/aisha-crm/modules/crm/infrastructure/persistence"
	"github.com/aisha-ai/aisha-crm/modules/crm/services"
	"github.com/aisha-ai/aisha-crm/modules/profile/domain/personprofile"
	profilepersistence "github.com/aisha-ai/aisha-crm/modules/profile/infrastructure/persistence"
	profileservices "github.com/aisha-ai/aisha-crm/modules/profile/services"
	"github.com/aisha-ai/aisha-crm/pkg/eventbus"
	"github.com/aisha-ai/aisha-crm/pkg/itf"
	"github.com/aisha-ai/aisha-crm/pkg/logging"
	"github.com/aisha-ai/aisha-crm/pkg/outbox"
)

type crmEnv struct {
	db       *itf.Database
	persons  *services.PersonService
	profiles *profileservices.ProfileService
}

func newCRMEnv(t *testing.T) *crmEnv {
	t.Helper()
	d := itf.NewDatabase(t)
	log := logging.ConsoleLogger(logrus.WarnLevel)

	bus := eventbus.NewEventPublisher(log)
	pub := outbox.NewPublisher()

	profileService := profileservices.NewProfileService(
		profilepersistence.NewProfileRepository(10), d.Pool, log)
	profileService.Register(bus)

	return &crmEnv{
		db:       d,
		persons:  services.NewPersonService(crmpersistence.NewPersonRepository(), bus, pub),
		profiles: profileService,
	}
}

func (e *crmEnv) outboxCount(t *testing.T, topic string) int {
	t.Helper()
	var count int
	require.NoError(t, e.db.Pool.QueryRow(context.Background(),
		`SELECT count(*) FROM profile_outbox WHERE topic = $1`, topic).Scan(&count))
	return count
}

func TestPersonService_Create_FastPathAndOutbox(t *testing.T) {
	env := newCRMEnv(t)
	tenantID := env.db.CreateTenant(t, "Acme", "acme")
	ctx := env.db.TenantContext(tenantID)

	created, err := env.persons.Create(ctx,
		person.New(person.KindLead, tenantID, "Jane", "Doe").
			WithContactInfo("jane@acme.test", ""))
	require.NoError(t, err)

	// The lifecycle event runs synchronously, so the identity fast path has
	// already written a profile stub by the time Create returns.
	p, err := env.profiles.GetByPersonID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.DisplayName)
	assert.Equal(t, "jane@acme.test", p.Email)
	assert.Empty(t, p.Activities)

	assert.Equal(t, 1, env.outboxCount(t, events.TopicProfileRefreshV1))
}

func TestPersonService_Update_FastPath(t *testing.T) {
	env := newCRMEnv(t)
	tenantID := env.db.CreateTenant(t, "Acme", "acme")
	ctx := env.db.TenantContext(tenantID)

	created, err := env.persons.Create(ctx, person.New(person.KindContact, tenantID, "John", "Smith"))
	require.NoError(t, err)

	_, err = env.persons.Update(ctx, created.WithName("Johnny", "Smith"))
	require.NoError(t, err)

	p, err := env.profiles.GetByPersonID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "Johnny Smith", p.DisplayName)

	// identity-only change, no extra refresh request
	assert.Equal(t, 1, env.outboxCount(t, events.TopicProfileRefreshV1))
}

func TestPersonService_Delete_RemovesProfile(t *testing.T) {
	env := newCRMEnv(t)
	tenantID := env.db.CreateTenant(t, "Acme", "acme")
	ctx := env.db.TenantContext(tenantID)

	created, err := env.persons.Create(ctx, person.New(person.KindLead, tenantID, "Jane", "Doe"))
	require.NoError(t, err)

	_, err = env.profiles.GetByPersonID(ctx, created.ID())
	require.NoError(t, err)

	require.NoError(t, env.persons.Delete(ctx, created.Ref()))

	_, err = env.profiles.GetByPersonID(ctx, created.ID())
	require.ErrorIs(t, err, personprofile.ErrNotFound)

	assert.Equal(t, 2, env.outboxCount(t, events.TopicProfileRefreshV1))
}

// Full pipeline: a CRM write enqueues a refresh request, the relay claims it
// and the dispatcher recomputes the profile.
func TestRefreshPipeline_EndToEnd(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantID := d.CreateTenant(t, "Acme", "acme")
	ctx := d.TenantContext(tenantID)

	log := logging.ConsoleLogger(logrus.WarnLevel)
	bus := eventbus.NewEventPublisher(log)
	pub := outbox.NewPublisher()

	profileService := profileservices.NewProfileService(
		profilepersistence.NewProfileRepository(10), d.Pool, log)
	profileService.Register(bus)

	personService := services.NewPersonService(crmpersistence.NewPersonRepository(), bus, pub)
	activityService := services.NewActivityService(crmpersistence.NewActivityRepository(), pub)
	opportunityService := services.NewOpportunityService(crmpersistence.NewOpportunityRepository(), pub)

	lead, err := personService.Create(ctx, person.New(person.KindLead, tenantID, "Jane", "Doe"))
	require.NoError(t, err)

	_, err = activityService.Create(ctx, &activity.Activity{
		Person:     lead.Ref(),
		Type:       "meeting",
		Subject:    "kickoff",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = opportunityService.Create(ctx, &opportunity.Opportunity{
		Person: lead.Ref(),
		Name:   "pilot",
		Stage:  opportunity.StageProspecting,
	})
	require.NoError(t, err)

	relay, err := outbox.NewRelay(d.Pool,
		profileservices.NewRefreshDispatcher(profileService, log),
		outbox.RelayOptions{
			PollInterval: 25 * time.Millisecond,
			SingleActive: false,
			Logger:       log,
		})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(runCtx) }()

	require.Eventually(t, func() bool {
		p, err := profileService.GetByPersonID(ctx, lead.ID())
		if err != nil {
			return false
		}
		return len(p.Activities) == 1 && p.OpenOpportunityCount == 1
	}, 15*time.Second, 100*time.Millisecond)

	p, err := profileService.GetByPersonID(ctx, lead.ID())
	require.NoError(t, err)
	assert.Equal(t, "kickoff", p.Activities[0].Subject)
	require.NotNil(t, p.LastActivityAt)
	assert.Contains(t, p.OpportunityStageHist, "prospecting")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestOpportunityService_RejectsUnknownStage(t *testing.T) {
	env := newCRMEnv(t)
	tenantID := env.db.CreateTenant(t, "Acme", "acme")
	ctx := env.db.TenantContext(tenantID)

	lead, err := env.persons.Create(ctx, person.New(person.KindLead, tenantID, "Jane", "Doe"))
	require.NoError(t, err)

	opportunityService := services.NewOpportunityService(
		crmpersistence.NewOpportunityRepository(), outbox.NewPublisher())

	_, err = opportunityService.Create(ctx, &opportunity.Opportunity{
		Person: lead.Ref(),
		Name:   "bad deal",
		Stage:  opportunity.Stage("won"),
	})
	require.Error(t, err)
}
