package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	l, err := NewWithWriter(Config{Level: "WARN"}, "test", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())

	l, err = NewWithWriter(Config{Level: "error", Debug: true}, "test", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	_, err = NewWithWriter(Config{Level: "loud"}, "test", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{}, "1.2.3", &buf)
	require.NoError(t, err)

	cl := WithComponent(l, "flow")
	cl.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "flow", line["component"])
	assert.Equal(t, "1.2.3", line["version"])
	assert.Equal(t, "hello", line["message"])
}
