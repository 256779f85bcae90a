package personprofile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
)

var ErrNotFound = errors.New("person profile not found")

// RefreshResult describes what a refresh invocation actually did.
type RefreshResult string

const (
	// ResultRefreshed means this invocation recomputed and wrote the row.
	ResultRefreshed RefreshResult = "refreshed"
	// ResultSkipped means a concurrent refresh holds the per-person lock;
	// its recompute will incorporate equivalent or fresher source data.
	ResultSkipped RefreshResult = "skipped"
	// ResultOrphanCleaned means the person no longer exists and the stale
	// profile row was removed.
	ResultOrphanCleaned RefreshResult = "orphan_cleaned"
)

type ActivityEntry struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
}

type NoteEntry struct {
	ID        uuid.UUID `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentEntry struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// PersonProfile is the derived, read-optimized aggregate: one row per live
// person, rebuildable in full from source tables at any time. Never a source
// of truth.
type PersonProfile struct {
	PersonID    uuid.UUID
	TenantID    uuid.UUID
	Kind        person.Kind
	DisplayName string
	Email       string
	Phone       string

	LastActivityAt       *time.Time
	OpenOpportunityCount int64
	Activities           []ActivityEntry
	Notes                []NoteEntry
	RecentDocuments      []DocumentEntry
	OpportunityStageHist []string
	UpdatedAt            time.Time
}

// DecodeEntries unmarshals a stored jsonb list into its typed form.
func DecodeEntries[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type Repository interface {
	// Refresh recomputes the profile for personID under a non-blocking
	// per-person advisory lock. Lock contention is not an error; the result
	// reports whether this invocation wrote, skipped, or cleaned up.
	Refresh(ctx context.Context, personID uuid.UUID) (RefreshResult, error)

	GetByPersonID(ctx context.Context, personID uuid.UUID) (*PersonProfile, error)

	// UpsertIdentity is the fast path taken on a lead/contact's own write:
	// it updates only the denormalized identity fields without the full
	// recompute.
	UpsertIdentity(ctx context.Context, p person.Person) error

	DeleteByPersonID(ctx context.Context, personID uuid.UUID) error
}
