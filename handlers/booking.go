package handlers

import (
	"net/http"

	"servicely/middleware"
	"servicely/models"
	"servicely/services/booking"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

// SearchSlotsHandler lists nearby live providers and the durations each can take now.
func (h *BookingHandler) SearchSlotsHandler(c *gin.Context) {
	var req models.SlotSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, "Invalid search parameters", err)
		return
	}

	providers, err := h.Service.SearchProviders(c.Request.Context(), req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Invalid request payload", err)
		return
	}

	result, err := h.Service.CreateBookingFromSlotSearch(c.Request.Context(), middleware.Actor(c).ID, req)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	result, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	b, err := h.Service.CancelBooking(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": b})
}

// AcceptBookingHandler lets a candidate provider take the booking.
func (h *BookingHandler) AcceptBookingHandler(c *gin.Context) {
	b, err := h.Service.AcceptBooking(c.Request.Context(), c.Param("id"), middleware.Actor(c).ID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking confirmed", "booking": b})
}
