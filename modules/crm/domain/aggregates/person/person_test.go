package person

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseKind("lead")
	require.NoError(t, err)
	assert.Equal(t, KindLead, kind)

	kind, err = ParseKind("contact")
	require.NoError(t, err)
	assert.Equal(t, KindContact, kind)

	_, err = ParseKind("account")
	require.Error(t, err)

	_, err = ParseKind("")
	require.Error(t, err)
}

func TestNewRef(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	ref, err := NewRef(KindLead, id)
	require.NoError(t, err)
	assert.Equal(t, KindLead, ref.Kind())
	assert.Equal(t, id, ref.ID())
	assert.False(t, ref.IsZero())
	assert.Equal(t, "lead:"+id.String(), ref.String())

	_, err = NewRef(Kind("account"), id)
	require.Error(t, err)

	_, err = NewRef(KindContact, uuid.Nil)
	require.Error(t, err)
}

func TestRefConstructors(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	assert.Equal(t, KindLead, LeadRef(id).Kind())
	assert.Equal(t, KindContact, ContactRef(id).Kind())
	assert.True(t, Ref{}.IsZero())
}

func TestPerson_New(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	p := New(KindLead, tenantID, "  Jane ", " Doe ")

	assert.Equal(t, KindLead, p.Kind())
	assert.Equal(t, tenantID, p.TenantID())
	assert.NotEqual(t, uuid.Nil, p.ID())
	assert.Equal(t, "Jane", p.FirstName())
	assert.Equal(t, "Doe", p.LastName())
	assert.Equal(t, StatusActive, p.Status())
	assert.False(t, p.IsZero())

	ref := p.Ref()
	assert.Equal(t, p.Kind(), ref.Kind())
	assert.Equal(t, p.ID(), ref.ID())
}

func TestPerson_DisplayName(t *testing.T) {
	t.Parallel()

	p := New(KindContact, uuid.New(), "Jane", "Doe")
	assert.Equal(t, "Jane Doe", p.DisplayName())

	mononym := New(KindContact, uuid.New(), "Cher", "")
	assert.Equal(t, "Cher", mononym.DisplayName())
}

func TestPerson_With(t *testing.T) {
	t.Parallel()

	p := New(KindLead, uuid.New(), "Jane", "Doe")

	updated := p.WithContactInfo(" jane@example.com ", " +123 ")
	assert.Equal(t, "jane@example.com", updated.Email())
	assert.Equal(t, "+123", updated.Phone())
	// value semantics: the original is untouched
	assert.Empty(t, p.Email())

	renamed := p.WithName("Janet", "Doe")
	assert.Equal(t, "Janet", renamed.FirstName())
	assert.Equal(t, "Jane", p.FirstName())

	inactive := p.WithStatus(StatusInactive)
	assert.Equal(t, StatusInactive, inactive.Status())
	assert.Equal(t, StatusActive, p.Status())
}
