package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "WARN", JSON: true, Out: &buf})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("dataset", "a.csv").Msg("resampling failed")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "a.csv", event["dataset"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Out: &buf})
	require.NoError(t, err)
	log.Info().Msg("dataset evaluated")
	assert.Contains(t, buf.String(), "dataset evaluated")

	_, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}
