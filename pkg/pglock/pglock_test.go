package pglock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Key("person_profile:abc"), Key("person_profile:abc"))
	assert.NotEqual(t, Key("person_profile:abc"), Key("person_profile:abd"))
	assert.NotEqual(t, Key("person_profile:abc"), Key("outbox:profile_outbox"))

	// fnv64a of the empty string is the offset basis, not zero
	assert.NotZero(t, Key(""))
}
