package models

import (
	"time"

	"servicely/services/slots"
)

// AvailabilityRecord is one provider's working window and slot bitmask for one day.
// Exactly one record exists per (ProviderID, Date).
type AvailabilityRecord struct {
	ID           string        `bson:"id" json:"id"`
	ProviderID   string        `bson:"providerId" json:"providerId"`
	ServiceIDs   []string      `bson:"serviceIds" json:"serviceIds"`
	Date         time.Time     `bson:"date" json:"date"`           // midnight UTC
	StartTime    string        `bson:"startTime" json:"startTime"` // "HH:MM", slot 0 starts here
	EndTime      string        `bson:"endTime" json:"endTime"`
	IsActive     bool          `bson:"isActive" json:"isActive"`
	AvailableBit slots.Bitmask `bson:"availableBit" json:"availableBit"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeDate truncates t to midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// SetupAvailabilityRequest registers a provider's working window for the rolling window.
type SetupAvailabilityRequest struct {
	ServiceIDs []string `json:"serviceIds" binding:"required,min=1"`
	StartTime  string   `json:"startTime" binding:"required"`
	EndTime    string   `json:"endTime" binding:"required"`
}

// ToggleStatus is the outcome of switching a provider online or offline.
type ToggleStatus string

const (
	ToggleActivated         ToggleStatus = "activated"
	ToggleDeactivated       ToggleStatus = "deactivated"
	ToggleFailedToAddGeo    ToggleStatus = "failed_to_add_in_redis"
	ToggleFailedToRemoveGeo ToggleStatus = "failed_to_remove_from_redis"
)

// ToggleResult reports the persisted flag and the live index reconciliation outcome.
type ToggleResult struct {
	IsActive       bool         `json:"isActive"`
	Status         ToggleStatus `json:"status"`
	FailedServices []string     `json:"failedServices,omitempty"`
}

// PartialFailure reports whether the live index needs out-of-band reconciliation.
func (r ToggleResult) PartialFailure() bool {
	return r.Status == ToggleFailedToAddGeo || r.Status == ToggleFailedToRemoveGeo
}
