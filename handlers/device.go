package handlers

import (
	"context"
	"errors"
	"net/http"

	"servicely/middleware"
	"servicely/models"
	"servicely/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenRegistrar stores the device token push notifications are sent to.
type TokenRegistrar interface {
	SetFCMToken(ctx context.Context, id, token string) error
}

// DeviceHandler registers device tokens for one kind of actor.
type DeviceHandler struct {
	Tokens   TokenRegistrar
	NotFound error
}

// NewDeviceHandler builds a handler over tokens. notFound is the error tokens
// returns when the caller has no profile yet.
func NewDeviceHandler(tokens TokenRegistrar, notFound error) *DeviceHandler {
	return &DeviceHandler{Tokens: tokens, NotFound: notFound}
}

// UpdateFCMTokenHandler replaces the caller's FCM token.
func (h *DeviceHandler) UpdateFCMTokenHandler(c *gin.Context) {
	actor := middleware.Actor(c)

	var req models.FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "Invalid request payload", err)
		return
	}

	err := h.Tokens.SetFCMToken(c.Request.Context(), actor.ID, req.Token)
	switch {
	case err == nil:
	case h.NotFound != nil && errors.Is(err, h.NotFound):
		utils.JSONError(c, http.StatusNotFound, "", "No "+actor.Role+" profile found", "")
		return
	default:
		utils.JSONError(c, http.StatusInternalServerError, "", "Internal server error", err.Error())
		return
	}

	getLogger(c).Info("fcm token updated", zap.String("role", actor.Role), zap.String("id", actor.ID))
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
