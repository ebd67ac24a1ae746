package models

import "time"

// Event types emitted to the real-time messaging collaborator.
const (
	EventBookingRequested   = "BOOKING_REQUESTED"
	EventBookingConfirmed   = "BOOKING_CONFIRMED"
	EventBookingUnavailable = "BOOKING_UNAVAILABLE"
	EventBookingCancelled   = "BOOKING_CANCELLED"
)

// Recipient addresses an event to a user or a provider.
type Recipient struct {
	Role string `json:"role"` // "user" or "provider"
	ID   string `json:"id"`
}

// Event is a booking lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	BookingID string    `json:"bookingId"`
	Message   string    `json:"message"`
	Recipient Recipient `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
}

// FCMTokenRequest registers the caller's push notification device token.
type FCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
