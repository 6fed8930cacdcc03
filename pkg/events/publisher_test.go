package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateIfNeeded_PassesThroughSmallPayload(t *testing.T) {
	out, err := truncateIfNeeded(`{"type":"started"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"started"}`, out)
}

func TestTruncateIfNeeded_TruncatesOversizedPayload(t *testing.T) {
	big := map[string]any{
		"type":        string(EventSlideGenerated),
		"db_event_id": 42,
		"data":        strings.Repeat("x", 8000),
	}
	raw, err := json.Marshal(big)
	require.NoError(t, err)

	out, err := truncateIfNeeded(string(raw))
	require.NoError(t, err)
	assert.Less(t, len(out), 7900)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, true, decoded["truncated"])
	assert.Equal(t, string(EventSlideGenerated), decoded["type"])
	assert.EqualValues(t, 42, decoded["db_event_id"])
}

func TestInjectDBEventIDAndTruncate(t *testing.T) {
	raw, err := json.Marshal(New(EventStarted, map[string]any{"deck_id": "d1"}))
	require.NoError(t, err)

	out, err := injectDBEventIDAndTruncate(raw, 7)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.EqualValues(t, 7, decoded["db_event_id"])
}
