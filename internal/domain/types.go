// Package domain defines the business logic for the carbon tracking service.
package domain

import "time"

// EmissionRecord is a single logged activity's computed CO2-equivalent value.
type EmissionRecord struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	Emissions    uint64    `json:"emissions"` // kilograms of CO2 equivalent
	Date         string    `json:"date"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// UserData is a user profile with its append-only emission record list.
type UserData struct {
	UserID           string           `json:"user_id"`
	Username         string           `json:"username"`
	EmissionsRecords []EmissionRecord `json:"emissions_records"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ActivityType is an administratively defined factor catalog entry. The
// emissions factor is fractional (kg CO2e per unit); rate and reduction feed
// the rate-based calculation variant.
type ActivityType struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	EmissionsFactor float64 `json:"emissions_factor"`
	Rate            uint64  `json:"rate"`
	ReductionPct    uint64  `json:"reduction_pct"`
}

// BenchmarkData is the per-user threshold totals are compared against.
type BenchmarkData struct {
	UserID             string `json:"user_id"`
	BenchmarkName      string `json:"benchmark_name"`
	EmissionsThreshold uint64 `json:"emissions_threshold"`
}

// UserSettings holds per-user preferences, overwritten on each upsert.
type UserSettings struct {
	UserID               string `json:"user_id"`
	PreferredUnits       string `json:"preferred_units"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// UserActivityHistory is a per-user snapshot of records for one activity
// label, replaced wholesale on every update.
type UserActivityHistory struct {
	UserID       string           `json:"user_id"`
	ActivityType string           `json:"activity_type"`
	History      []EmissionRecord `json:"history"`
}
