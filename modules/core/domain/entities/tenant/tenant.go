package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the canonical directory entry for an isolated customer
// organization. The id is the stable internal key every other entity carries;
// it is never reused or mutated after creation. Slug is the legacy string key
// kept only for callers that predate the UUID scheme.
type Tenant struct {
	id        uuid.UUID
	name      string
	domain    string
	slug      string
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Tenant)

func WithID(id uuid.UUID) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithDomain(domain string) Option {
	return func(t *Tenant) {
		t.domain = domain
	}
}

func WithSlug(slug string) Option {
	return func(t *Tenant) {
		t.slug = slug
	}
}

func WithIsActive(isActive bool) Option {
	return func(t *Tenant) {
		t.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

func New(name string, opts ...Option) *Tenant {
	t := &Tenant{
		id:        uuid.New(),
		name:      name,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tenant) ID() uuid.UUID {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) Domain() string {
	return t.domain
}

func (t *Tenant) Slug() string {
	return t.slug
}

func (t *Tenant) IsActive() bool {
	return t.isActive
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Tenant) SetName(name string) {
	t.name = name
	t.updatedAt = time.Now()
}

func (t *Tenant) SetDomain(domain string) {
	t.domain = domain
	t.updatedAt = time.Now()
}

func (t *Tenant) SetIsActive(isActive bool) {
	t.isActive = isActive
	t.updatedAt = time.Now()
}
