package routes

import (
	"net/http"
	"time"

	"servease/handlers"
	"servease/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterOfferRoutes registers the offer decision and polling endpoints.
func RegisterOfferRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/offers")
	api.Use(middleware.JWTAuthProviderMiddleware())
	{
		api.GET("/pending", hb.PendingOffersHandler)
		api.POST("/:id/accept", hb.AcceptOfferHandler)
		api.POST("/:id/reject", hb.RejectOfferHandler)
	}
}

// RegisterDispatchRoutes registers the realtime channel management endpoints.
func RegisterDispatchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/dispatch")
	api.Use(middleware.JWTAuthProviderMiddleware())
	{
		api.POST("/connect", hb.DispatchConnectHandler)
		api.POST("/disconnect", hb.DispatchDisconnectHandler)
		api.GET("/status", hb.DispatchStatusHandler)
	}
}

// RegisterRoutes wires CORS, health, and all endpoint groups.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", hb.HealthHandler)

	RegisterOfferRoutes(r, hb)
	RegisterDispatchRoutes(r, hb)
}
