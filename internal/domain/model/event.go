// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/bulletin/internal/domain/ranking"
)

// ViewEvent records one view of an announcement or event. It is the unit
// that flows from ingestion (HTTP, Kafka) through the queue to the workers.
type ViewEvent struct {
	EventID    string             `json:"event_id"`
	Collection ranking.Collection `json:"collection"`
	EntityID   int64              `json:"entity_id"`
	TS         time.Time          `json:"ts"`
}

// Validate checks the fields required to apply the event.
func (e ViewEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return errors.New("missing event_id")
	case !e.Collection.Valid():
		return errors.New("invalid collection")
	case e.EntityID < 1:
		return errors.New("invalid entity_id")
	}
	return nil
}
