package handlers

import (
	"net/http"
	"time"

	"servicely/middleware"
	"servicely/models"
	"servicely/services/availability"
	"servicely/services/slots"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler serves the provider-facing availability endpoints.
type AvailabilityHandler struct {
	Service availability.Store
	Now     func() time.Time
}

func NewAvailabilityHandler(service availability.Store) *AvailabilityHandler {
	return &AvailabilityHandler{Service: service, Now: time.Now}
}

func (h *AvailabilityHandler) today() time.Time {
	return models.NormalizeDate(h.Now())
}

// SetupAvailabilityHandler registers the provider's working window for the rolling window.
// Calling it again returns the existing records unchanged.
func (h *AvailabilityHandler) SetupAvailabilityHandler(c *gin.Context) {
	logger := getLogger(c)
	providerID := middleware.Actor(c).ID

	var req models.SetupAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Invalid request payload", err)
		return
	}

	records, err := h.Service.GetOrCreateWindow(c.Request.Context(), providerID, req.ServiceIDs, req.StartTime, req.EndTime, h.today())
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}

	logger.Info("availability window ready", zap.String("providerID", providerID), zap.Int("days", len(records)))
	c.JSON(http.StatusOK, gin.H{"availability": records})
}

// availabilityView is a record plus the start times of its still free slots.
type availabilityView struct {
	models.AvailabilityRecord
	FreeSlots []string `json:"freeSlots"`
}

// ListAvailabilityHandler returns the provider's records from today onwards.
func (h *AvailabilityHandler) ListAvailabilityHandler(c *gin.Context) {
	providerID := middleware.Actor(c).ID

	records, err := h.Service.ListForProvider(c.Request.Context(), providerID, h.today())
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}

	views := make([]availabilityView, 0, len(records))
	for _, rec := range records {
		free, err := slots.FreeStartTimes(rec.AvailableBit, rec.StartTime)
		if err != nil {
			getLogger(c).Warn("record has an unreadable start time",
				zap.String("recordID", rec.ID), zap.String("startTime", rec.StartTime), zap.Error(err))
			free = []string{}
		}
		views = append(views, availabilityView{AvailabilityRecord: rec, FreeSlots: free})
	}
	c.JSON(http.StatusOK, gin.H{"availability": views})
}

// ToggleAvailabilityHandler flips today's online flag. A failed live index update is
// still a 200; the status field tells the client which side needs reconciling.
func (h *AvailabilityHandler) ToggleAvailabilityHandler(c *gin.Context) {
	logger := getLogger(c)
	providerID := middleware.Actor(c).ID

	result, err := h.Service.ToggleActive(c.Request.Context(), providerID, h.today())
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}
	if result.PartialFailure() {
		logger.Warn("toggle left live index out of sync",
			zap.String("providerID", providerID),
			zap.String("status", string(result.Status)),
			zap.Strings("services", result.FailedServices),
		)
	}
	c.JSON(http.StatusOK, result)
}

// UpdateLocationHandler ingests a provider position ping.
func (h *AvailabilityHandler) UpdateLocationHandler(c *gin.Context) {
	providerID := middleware.Actor(c).ID

	var req models.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Invalid request payload", err)
		return
	}

	indexed, err := h.Service.UpdateLocation(c.Request.Context(), providerID, req, h.today())
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}
	if indexed == nil {
		indexed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"indexedServices": indexed})
}
