package person

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the two person entity sets.
type Kind string

const (
	KindLead    Kind = "lead"
	KindContact Kind = "contact"
)

func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindLead:
		return KindLead, nil
	case KindContact:
		return KindContact, nil
	default:
		return "", fmt.Errorf("unknown person kind %q", raw)
	}
}

// Ref is a typed reference to a person: a tagged variant over the two entity
// sets instead of a bare id plus a string discriminator.
type Ref struct {
	kind Kind
	id   uuid.UUID
}

func LeadRef(id uuid.UUID) Ref {
	return Ref{kind: KindLead, id: id}
}

func ContactRef(id uuid.UUID) Ref {
	return Ref{kind: KindContact, id: id}
}

func NewRef(kind Kind, id uuid.UUID) (Ref, error) {
	switch kind {
	case KindLead, KindContact:
	default:
		return Ref{}, fmt.Errorf("unknown person kind %q", kind)
	}
	if id == uuid.Nil {
		return Ref{}, fmt.Errorf("person ref requires a non-nil id")
	}
	return Ref{kind: kind, id: id}, nil
}

func (r Ref) Kind() Kind    { return r.kind }
func (r Ref) ID() uuid.UUID { return r.id }
func (r Ref) IsZero() bool  { return r.id == uuid.Nil }

func (r Ref) String() string {
	return string(r.kind) + ":" + r.id.String()
}
