package personprofile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntries(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal([]ActivityEntry{
		{ID: id, Type: "call", Subject: "intro", OccurredAt: occurred},
	})
	require.NoError(t, err)

	entries, err := DecodeEntries[ActivityEntry](raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "call", entries[0].Type)
	assert.True(t, occurred.Equal(entries[0].OccurredAt))
}

func TestDecodeEntries_Empty(t *testing.T) {
	t.Parallel()

	entries, err := DecodeEntries[NoteEntry](nil)
	require.NoError(t, err)
	assert.Nil(t, entries)

	entries, err = DecodeEntries[NoteEntry](json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.Empty(t, entries)

	// sql NULL arrives as the literal null
	entries, err = DecodeEntries[NoteEntry](json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestDecodeEntries_Malformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeEntries[DocumentEntry](json.RawMessage(`{"not":"a list"}`))
	require.Error(t, err)
}
