package handlers

import (
	"servicely/utils"
)

// HandlerBundle collects everything the router needs.
type HandlerBundle struct {
	JWTSecret         string
	MaxRequestsPerMin int

	Availability   *AvailabilityHandler
	Booking        *BookingHandler
	ProviderDevice *DeviceHandler
	UserDevice     *DeviceHandler
	Health         *utils.HealthMonitor
}
