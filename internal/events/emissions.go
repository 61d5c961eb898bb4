// Package events defines the payloads published for downstream consumers.
package events

import "time"

// Routing constants for the emission event stream.
const (
	TopicEmissions          = "carbon_emission_events"
	TypeEmissionRecorded    = "emission.recorded"
	SubjectEmissionRecorded = "carbon_emission_events-value"
)

// EmissionRecorded is emitted whenever a new emission record is appended to
// a user's profile.
type EmissionRecorded struct {
	RecordID     string    `json:"record_id"`
	UserID       string    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	Emissions    uint64    `json:"emissions"`
	Date         string    `json:"date"`
	RecordedAt   time.Time `json:"recorded_at"`
}
