package person

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Person is the union of Lead and Contact: the subject of the derived
// profile. Kind discriminates which entity set the id belongs to.
type Person struct {
	kind      Kind
	tenantID  uuid.UUID
	id        uuid.UUID
	firstName string
	lastName  string
	email     string
	phone     string
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

func New(kind Kind, tenantID uuid.UUID, firstName, lastName string) Person {
	return Person{
		kind:      kind,
		tenantID:  tenantID,
		id:        uuid.New(),
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		status:    StatusActive,
	}
}

func Hydrate(
	kind Kind,
	tenantID uuid.UUID,
	id uuid.UUID,
	firstName string,
	lastName string,
	email string,
	phone string,
	status Status,
	createdAt time.Time,
	updatedAt time.Time,
) Person {
	return Person{
		kind:      kind,
		tenantID:  tenantID,
		id:        id,
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     strings.TrimSpace(email),
		phone:     strings.TrimSpace(phone),
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p Person) Kind() Kind           { return p.kind }
func (p Person) TenantID() uuid.UUID  { return p.tenantID }
func (p Person) ID() uuid.UUID        { return p.id }
func (p Person) FirstName() string    { return p.firstName }
func (p Person) LastName() string     { return p.lastName }
func (p Person) Email() string        { return p.email }
func (p Person) Phone() string        { return p.phone }
func (p Person) Status() Status       { return p.status }
func (p Person) CreatedAt() time.Time { return p.createdAt }
func (p Person) UpdatedAt() time.Time { return p.updatedAt }
func (p Person) IsZero() bool         { return p.id == uuid.Nil }

func (p Person) Ref() Ref {
	return Ref{kind: p.kind, id: p.id}
}

func (p Person) DisplayName() string {
	return strings.TrimSpace(p.firstName + " " + p.lastName)
}

func (p Person) WithContactInfo(email, phone string) Person {
	p.email = strings.TrimSpace(email)
	p.phone = strings.TrimSpace(phone)
	return p
}

func (p Person) WithName(firstName, lastName string) Person {
	p.firstName = strings.TrimSpace(firstName)
	p.lastName = strings.TrimSpace(lastName)
	return p
}

func (p Person) WithStatus(status Status) Person {
	p.status = status
	return p
}
