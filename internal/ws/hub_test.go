package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	payload := AdoptionPathPayload{
		EndUse:    "cooking",
		Years:     []float64{2018, 2045},
		Fractions: []float64{0, 1},
	}

	msg, err := NewEnvelope(TypeAdoptionPath, payload)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeAdoptionPath, env.Type)

	var parsed AdoptionPathPayload
	err = json.Unmarshal(env.Payload, &parsed)
	require.NoError(t, err)

	assert.Equal(t, payload, parsed)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeDataLoaded, nil)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeDataLoaded, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	// Unregistering twice must not close the channel again.
	hub.Unregister(c)
	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastSkipsFullClient(t *testing.T) {
	hub := NewHub()

	full := &Client{hub: hub, send: make(chan []byte, 1)}
	ok := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.Register(full)
	hub.Register(ok)

	hub.Broadcast([]byte("1"))
	hub.Broadcast([]byte("2"))

	assert.Len(t, full.send, 1)
	assert.Len(t, ok.send, 2)
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "projection:request", TypeProjectionRequest)
	assert.Equal(t, "adoption:request", TypeAdoptionRequest)
	assert.Equal(t, "data:loaded", TypeDataLoaded)
	assert.Equal(t, "projection:result", TypeProjectionResult)
	assert.Equal(t, "adoption:path", TypeAdoptionPath)
	assert.Equal(t, "run:saved", TypeRunSaved)
	assert.Equal(t, "error", TypeError)
}
