package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/adsplit/adsplit/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New("info", logging.FormatJSON, &buf)
	require.NoError(t, err)

	logger.Info().Str("stage", "load").Msg("loading data")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "loading data", entry["message"])
	assert.Equal(t, "load", entry["stage"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logging.New("loud", logging.FormatJSON, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := logging.New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
