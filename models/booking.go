package models

import "time"

// Booked slot states.
const (
	SlotInitiated = "initiated"
	SlotConfirmed = "confirmed"
	SlotCancelled = "cancelled"
)

// Booking states.
const (
	BookingInitiated = "initiated"
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingVerified  = "verified"
	BookingCompleted = "completed"
	BookingCanceled  = "canceled"
)

// BookedSlot is a slot-level reservation. Providers lists every candidate until one
// accepts, then exactly that provider.
type BookedSlot struct {
	ID         string    `bson:"id" json:"id"`
	Providers  []string  `bson:"providers" json:"providers"`
	ServiceID  string    `bson:"serviceId" json:"serviceId"`
	Date       time.Time `bson:"date" json:"date"`
	StartTime  string    `bson:"startTime" json:"startTime"`
	EndTime    string    `bson:"endTime" json:"endTime"`
	SlotTiming int       `bson:"slotTiming" json:"slotTiming"` // minutes
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasProvider reports whether providerID is among the candidates.
func (s BookedSlot) HasProvider(providerID string) bool {
	for _, p := range s.Providers {
		if p == providerID {
			return true
		}
	}
	return false
}

// Address is where the service is delivered.
type Address struct {
	Line     string   `bson:"line,omitempty" json:"line,omitempty"`
	City     string   `bson:"city,omitempty" json:"city,omitempty"`
	Location GeoPoint `bson:"location" json:"location"`
}

// Booking is the user-facing reservation aggregate.
type Booking struct {
	ID            string    `bson:"id" json:"id"`
	BookedSlotID  string    `bson:"bookedSlotId" json:"bookedSlotId"`
	CartID        string    `bson:"cartId,omitempty" json:"cartId,omitempty"`
	UserID        string    `bson:"userId" json:"userId"`
	ProviderID    string    `bson:"providerId,omitempty" json:"providerId,omitempty"` // set on accept
	ServiceID     string    `bson:"serviceId" json:"serviceId"`
	ActualPrice   float64   `bson:"actualPrice" json:"actualPrice"`
	Discount      float64   `bson:"discount" json:"discount"`
	Taxes         float64   `bson:"taxes" json:"taxes"`
	FinalPrice    float64   `bson:"finalPrice" json:"finalPrice"`
	Status        string    `bson:"status" json:"status"`
	Address       Address   `bson:"address" json:"address"`
	TransactionID string    `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Cancellable reports whether the booking can still be cancelled.
func (b Booking) Cancellable() bool {
	switch b.Status {
	case BookingInitiated, BookingPending, BookingConfirmed:
		return true
	}
	return false
}

// CreateBookingRequest is the payload for committing to a slot found by a search.
type CreateBookingRequest struct {
	ProviderIDs     []string `json:"providerIds" binding:"required,min=1"`
	ServiceID       string   `json:"serviceId" binding:"required"`
	Date            string   `json:"date" binding:"required"` // 2006-01-02
	StartTime       string   `json:"startTime" binding:"required"`
	DurationMinutes int      `json:"durationMinutes" binding:"required,gt=0"`
	CartID          string   `json:"cartId,omitempty"`
	ActualPrice     float64  `json:"actualPrice" binding:"gte=0"`
	Discount        float64  `json:"discount" binding:"gte=0"`
	Taxes           float64  `json:"taxes" binding:"gte=0"`
	TransactionID   string   `json:"transactionId,omitempty"`
	Address         Address  `json:"address"`
}

// BookingResult pairs a booking with its slot reservation.
type BookingResult struct {
	Booking    Booking    `json:"booking"`
	BookedSlot BookedSlot `json:"bookedSlot"`
}
