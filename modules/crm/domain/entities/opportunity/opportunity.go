package opportunity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
)

var ErrNotFound = errors.New("opportunity not found")

type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"
)

// ClosedStages is the closed-state set excluded from the open-opportunity
// count on person profiles.
var ClosedStages = []Stage{StageClosedWon, StageClosedLost}

func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

func ParseStage(raw string) (Stage, error) {
	switch Stage(raw) {
	case StageProspecting, StageQualification, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost:
		return Stage(raw), nil
	default:
		return "", errors.New("unknown opportunity stage " + raw)
	}
}

type Opportunity struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Person      person.Ref
	Name        string
	Stage       Stage
	AmountCents int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Opportunity, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*Opportunity, error)
	CountOpenByPerson(ctx context.Context, personID uuid.UUID) (int64, error)
	Create(ctx context.Context, o *Opportunity) (*Opportunity, error)
	Update(ctx context.Context, o *Opportunity) (*Opportunity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
