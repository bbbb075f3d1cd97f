package model

import (
	"time"

	"github.com/google/uuid"
)

// VoyageStatus is where a voyage stands in its lifecycle. The transition
// is one-way: active → ended, exactly once.
type VoyageStatus string

const (
	// VoyageActive means work is in progress.
	VoyageActive VoyageStatus = "active"

	// VoyageEnded means the voyage is complete and its logbook sealed.
	VoyageEnded VoyageStatus = "ended"
)

// Voyage is one unit of tracked work with its own isolated store.
type Voyage struct {
	ID        uuid.UUID
	Intent    string
	CreatedAt time.Time
	Status    VoyageStatus

	// EndedAt and EndedStatus are set iff Status is VoyageEnded.
	// EndedStatus is freeform: what was accomplished, learned, or
	// left open.
	EndedAt     time.Time
	EndedStatus string
}

// NewVoyage builds an active voyage with a fresh id.
func NewVoyage(intent string) Voyage {
	return Voyage{
		ID:        uuid.New(),
		Intent:    intent,
		CreatedAt: time.Now().UTC(),
		Status:    VoyageActive,
	}
}
