package routes

import (
	"time"

	"servicely/handlers"
	"servicely/middleware"
	"servicely/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterProviderRoutes registers the provider-side availability and acceptance endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.Use(middleware.JWTAuthMiddleware(hb.JWTSecret), middleware.RequireRole(utils.RoleProvider))
		api.POST("/availability", hb.Availability.SetupAvailabilityHandler)
		api.GET("/availability", hb.Availability.ListAvailabilityHandler)
		api.PATCH("/availability/toggle", hb.Availability.ToggleAvailabilityHandler)
		api.PUT("/location", hb.Availability.UpdateLocationHandler)
		api.PUT("/fcm-token", hb.ProviderDevice.UpdateFCMTokenHandler)
		api.POST("/bookings/:id/accept", hb.Booking.AcceptBookingHandler)
	}
}

// RegisterUserRoutes registers the customer-side device endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	{
		api.Use(middleware.JWTAuthMiddleware(hb.JWTSecret), middleware.RequireRole(utils.RoleUser))
		api.PUT("/fcm-token", hb.UserDevice.UpdateFCMTokenHandler)
	}
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	slots := r.Group("/api/slots")
	{
		slots.Use(middleware.JWTAuthMiddleware(hb.JWTSecret), middleware.RequireRole(utils.RoleUser))
		slots.GET("/search", hb.Booking.SearchSlotsHandler)
	}

	bookings := r.Group("/api/bookings")
	{
		bookings.Use(middleware.JWTAuthMiddleware(hb.JWTSecret))
		bookings.POST("", middleware.RequireRole(utils.RoleUser), hb.Booking.CreateBookingHandler)
		bookings.GET("/:id", hb.Booking.GetBookingHandler)
		bookings.POST("/:id/cancel", hb.Booking.CancelBookingHandler)
	}
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", handlers.HealthHandler(hb.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(hb.MaxRequestsPerMin))

	RegisterOpsRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterUserRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
}
