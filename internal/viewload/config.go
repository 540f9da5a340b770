// Package viewload drives synthetic view traffic against a running service
// and reports what the analytics endpoints return afterwards.
package viewload

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumViews int           // Number of views to submit
	Entities int           // Entity IDs are drawn from 1..Entities
	Workers  int           // Number of concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	Token    string        // Admin session token; empty skips the analytics check
	Settle   time.Duration // Wait between submission and the analytics check
}

// Stats holds run statistics.
type Stats struct {
	Submitted  int64
	Accepted   int64
	Duplicate  int64
	Rejected   int64
	Failed     int64
	Duration   time.Duration
	TopResults map[string][]Record
}

// Record mirrors one entry of an analytics response.
type Record struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

type viewRequest struct {
	EventID    string `json:"event_id"`
	Collection string `json:"collection"`
	EntityID   int64  `json:"entity_id"`
	TS         string `json:"ts"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}
