package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/profile/domain/personprofile"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/eventbus"
)

// ProfileService owns the derived person profile: full recomputes through
// Refresh and the identity fast path driven by person lifecycle events.
type ProfileService struct {
	repo personprofile.Repository
	pool *pgxpool.Pool
	log  *logrus.Logger
	m    *metrics
}

func NewProfileService(repo personprofile.Repository, pool *pgxpool.Pool, log *logrus.Logger) *ProfileService {
	return &ProfileService{
		repo: repo,
		pool: pool,
		log:  log,
		m:    getMetrics(),
	}
}

// Register subscribes the fast-path handlers. Lifecycle events arrive after
// the owning transaction committed, so each handler runs its own tenant
// transaction.
func (s *ProfileService) Register(bus eventbus.EventBus) {
	bus.Subscribe(s.onPersonCreated)
	bus.Subscribe(s.onPersonUpdated)
	bus.Subscribe(s.onPersonDeleted)
}

// Refresh recomputes the profile for personID. A skipped result means a
// concurrent refresh holds the lock and its write covers this one.
func (s *ProfileService) Refresh(ctx context.Context, personID uuid.UUID) (personprofile.RefreshResult, error) {
	start := time.Now()
	result, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (personprofile.RefreshResult, error) {
		return s.repo.Refresh(txCtx, personID)
	})

	label := string(result)
	if err != nil {
		label = "error"
	}
	s.m.refreshTotal.WithLabelValues(label).Inc()
	s.m.refreshDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", err
	}
	return result, nil
}

func (s *ProfileService) GetByPersonID(ctx context.Context, personID uuid.UUID) (*personprofile.PersonProfile, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*personprofile.PersonProfile, error) {
		return s.repo.GetByPersonID(txCtx, personID)
	})
}

func (s *ProfileService) tenantContext(tenantID uuid.UUID) context.Context {
	ctx := composables.WithPool(context.Background(), s.pool)
	return composables.WithTenantID(ctx, tenantID)
}

func (s *ProfileService) onPersonCreated(e person.CreatedEvent) {
	s.upsertIdentity("create", e.Result)
}

func (s *ProfileService) onPersonUpdated(e person.UpdatedEvent) {
	s.upsertIdentity("update", e.Result)
}

func (s *ProfileService) upsertIdentity(op string, p person.Person) {
	ctx := s.tenantContext(p.TenantID())
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpsertIdentity(txCtx, p)
	})
	if err != nil {
		s.m.fastPathTotal.WithLabelValues(op, "failure").Inc()
		s.log.WithError(err).
			WithField("person_id", p.ID()).
			Warn("profile: identity fast path failed, next refresh will converge")
		return
	}
	s.m.fastPathTotal.WithLabelValues(op, "success").Inc()
}

func (s *ProfileService) onPersonDeleted(e person.DeletedEvent) {
	ctx := s.tenantContext(e.TenantID)
	err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteByPersonID(txCtx, e.Ref.ID())
	})
	if err != nil {
		s.m.fastPathTotal.WithLabelValues("delete", "failure").Inc()
		s.log.WithError(err).
			WithField("person_id", e.Ref.ID()).
			Warn("profile: delete fast path failed, next refresh will converge")
		return
	}
	s.m.fastPathTotal.WithLabelValues("delete", "success").Inc()
}
