package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/database"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub)
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnRunSaved(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnRunSaved(&database.Run{
		ID:        "0b9f6c2e-run",
		Dataset:   "resstock-CA-all",
		StudyYear: 2035,
		Summary:   &analysis.Summary{NewPeakMW: 12.5, NewPeakHour: 18},
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeRunSaved, env.Type)

	var p RunSavedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "0b9f6c2e-run", p.ID)
	assert.Equal(t, "resstock-CA-all", p.Dataset)
	assert.Equal(t, 2035, p.StudyYear)
	assert.Equal(t, 12.5, p.Summary.NewPeakMW)
	assert.Equal(t, 18, p.Summary.NewPeakHour)
}

func TestBridge_OnRunSaved_NoSummary(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnRunSaved(&database.Run{ID: "plain", Dataset: "x"})

	env := receiveEnvelope(t, client)
	var p RunSavedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "plain", p.ID)
	assert.Equal(t, analysis.Summary{}, p.Summary)
}
