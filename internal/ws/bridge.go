package ws

import (
	"log"

	"loadshape_toolkit/internal/database"
)

// Bridge broadcasts store-level events to every connected client.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// OnRunSaved announces a newly persisted projection run.
func (b *Bridge) OnRunSaved(run *database.Run) {
	payload := RunSavedPayload{
		ID:        run.ID,
		Dataset:   run.Dataset,
		StudyYear: run.StudyYear,
	}
	if run.Summary != nil {
		payload.Summary = *run.Summary
	}

	msg, err := NewEnvelope(TypeRunSaved, payload)
	if err != nil {
		log.Printf("Error marshaling run:saved: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
