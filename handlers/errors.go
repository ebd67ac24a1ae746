package handlers

import (
	"errors"
	"net/http"

	"servicely/services/availability"
	"servicely/services/booking"
	"servicely/utils"

	"github.com/gin-gonic/gin"
)

var bookingStatus = map[string]int{
	booking.CodeInvalidInput: http.StatusBadRequest,
	booking.CodeNotFound:     http.StatusNotFound,
	booking.CodeConflict:     http.StatusConflict,
	booking.CodeForbidden:    http.StatusForbidden,
	booking.CodeInternal:     http.StatusInternalServerError,
}

// respondBookingError writes err with the status its booking code maps to.
// Internal details are logged, never returned.
func respondBookingError(c *gin.Context, err error) {
	code := booking.Code(err)
	status, ok := bookingStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "Internal server error"
	var be *booking.BookingError
	if status != http.StatusInternalServerError && errors.As(err, &be) {
		message = be.Message
	}
	details := ""
	if status >= http.StatusInternalServerError {
		details = err.Error()
	}
	utils.JSONError(c, status, code, message, details)
}

func respondAvailabilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidInput):
		utils.JSONError(c, http.StatusBadRequest, "", "Invalid availability request", err.Error())
	case errors.Is(err, availability.ErrNoWindow):
		utils.JSONError(c, http.StatusNotFound, "", "No availability registered for today", "")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "", "Internal server error", err.Error())
	}
}

func respondBindError(c *gin.Context, message string, err error) {
	utils.JSONError(c, http.StatusBadRequest, "", message, err.Error())
}
