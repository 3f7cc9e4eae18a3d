package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBridgeID(t *testing.T) {
	cases := map[string]string{
		"00:17:88:09:08:07": "001788090807",
		"001788FFFE090807":  "001788090807",
		"001788090807":      "001788090807",
		"ABCDEF":            "abcdef",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBridgeID(in), in)
	}
	assert.Equal(t, NormalizeBridgeID("001788FFFE090807"), NormalizeBridgeID(NormalizeBridgeID("001788FFFE090807")))
}

func TestConfigEntry_Clone(t *testing.T) {
	e := &ConfigEntry{EntryID: "1", Data: map[string]any{ConfHost: "10.0.0.5"}}
	c := e.Clone()
	c.Data[ConfUsername] = "abc"
	c.Options["x"] = true

	assert.Equal(t, "10.0.0.5", c.Host())
	assert.NotContains(t, e.Data, ConfUsername)
	assert.Nil(t, e.Options)
}

func TestFlagOption(t *testing.T) {
	opts := map[string]any{ConfAllowUnreachable: true, ConfAllowHueGroups: "yes"}
	assert.True(t, FlagOption(opts, ConfAllowUnreachable, false))
	assert.False(t, FlagOption(opts, ConfAllowHueGroups, false))
	assert.True(t, FlagOption(nil, ConfAllowHueGroups, true))
}
