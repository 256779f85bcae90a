package opportunity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"prospecting", "qualification", "proposal", "negotiation", "closed_won", "closed_lost",
	} {
		stage, err := ParseStage(raw)
		require.NoError(t, err)
		assert.Equal(t, Stage(raw), stage)
	}

	_, err := ParseStage("won")
	require.Error(t, err)

	_, err = ParseStage("")
	require.Error(t, err)
}

func TestStage_IsClosed(t *testing.T) {
	t.Parallel()

	assert.True(t, StageClosedWon.IsClosed())
	assert.True(t, StageClosedLost.IsClosed())
	assert.False(t, StageProspecting.IsClosed())
	assert.False(t, StageQualification.IsClosed())
	assert.False(t, StageProposal.IsClosed())
	assert.False(t, StageNegotiation.IsClosed())
}
