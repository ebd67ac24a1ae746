package models

// SlotSearchRequest asks which live providers near a point can take a job now.
type SlotSearchRequest struct {
	ServiceID string  `form:"serviceId" json:"serviceId" binding:"required"`
	Lon       float64 `form:"lon" json:"lon"`
	Lat       float64 `form:"lat" json:"lat"`
	RadiusKm  float64 `form:"radiusKm" json:"radiusKm"`
	Date      string  `form:"date" json:"date,omitempty"` // 2006-01-02, defaults to today
}

// ProviderAvailability lists the durations (minutes) a provider can currently satisfy.
type ProviderAvailability struct {
	ProviderID         string  `json:"providerId"`
	DistanceKm         float64 `json:"distanceKm"`
	StartTime          string  `json:"startTime"` // earliest start considered
	AvailableDurations []int   `json:"availableDurations"`
}

// NearbyProvider is a live index hit.
type NearbyProvider struct {
	ProviderID string  `json:"providerId"`
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
	DistanceKm float64 `json:"distanceKm"`
}

// LocationUpdateRequest is a provider position ping from the ingest pipeline.
type LocationUpdateRequest struct {
	Lon        float64  `json:"lon"`
	Lat        float64  `json:"lat"`
	ServiceIDs []string `json:"serviceIds" binding:"required,min=1"`
}
