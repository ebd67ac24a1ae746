package models

import (
	"time"
)

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint builds a GeoJSON point from longitude and latitude.
func NewGeoPoint(lon, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// Valid reports whether the point carries a longitude/latitude pair in range.
func (g GeoPoint) Valid() bool {
	if len(g.Coordinates) != 2 {
		return false
	}
	lon, lat := g.Coordinates[0], g.Coordinates[1]
	return lon >= -180 && lon <= 180 && lat >= -85.05112878 && lat <= 85.05112878
}

func (g GeoPoint) Lon() float64 {
	if len(g.Coordinates) != 2 {
		return 0
	}
	return g.Coordinates[0]
}

func (g GeoPoint) Lat() float64 {
	if len(g.Coordinates) != 2 {
		return 0
	}
	return g.Coordinates[1]
}

// ProviderLocation is the durable last-known position of a provider for one service,
// flushed from the live index by the background sweep.
type ProviderLocation struct {
	ProviderID string    `bson:"providerId" json:"providerId"`
	ServiceID  string    `bson:"serviceId" json:"serviceId"`
	Location   GeoPoint  `bson:"location" json:"location"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Provider is the slice of the provider profile this service reads.
type Provider struct {
	ID          string   `bson:"id" json:"id"`
	Name        string   `bson:"name,omitempty" json:"name,omitempty"`
	ServiceIDs  []string `bson:"serviceIds,omitempty" json:"serviceIds,omitempty"`
	LocationGeo GeoPoint `bson:"locationGeo" json:"locationGeo"`
	FCMToken    string   `bson:"fcmToken,omitempty" json:"-"`
}
