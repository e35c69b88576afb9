package aisstream

import (
	"testing"

	"aisbridge/tms/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "secret"
	cfg.BoundingBoxes = [][][]float64{{{25.835302, -80.207729}, {25.6027, -79.879297}}}

	data, err := NewSubscription(cfg).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"APIKey": "secret",
		"BoundingBoxes": [[[25.835302, -80.207729], [25.6027, -79.879297]]],
		"FilterMessageTypes": ["PositionReport"]
	}`, string(data))
}
