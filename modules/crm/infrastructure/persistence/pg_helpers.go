package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/repo"
)

func personTable(kind person.Kind) string {
	if kind == person.KindContact {
		return "contacts"
	}
	return "leads"
}

// tenantTx resolves both the statement handle and the caller's tenant claim.
// Every tenant-scoped query filters by tenant_id in addition to the RLS
// policy; the explicit predicate keeps queries on the tenant index even when
// enforcement is disabled in development.
func tenantTx(ctx context.Context) (repo.Tx, uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return tx, tenantID, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
