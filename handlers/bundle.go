// File: servease/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Offer endpoints (polling fallback + accept/reject decisions).
	PendingOffersHandler gin.HandlerFunc
	AcceptOfferHandler   gin.HandlerFunc
	RejectOfferHandler   gin.HandlerFunc

	// Dispatch channel endpoints.
	DispatchConnectHandler    gin.HandlerFunc
	DispatchDisconnectHandler gin.HandlerFunc
	DispatchStatusHandler     gin.HandlerFunc

	// Health endpoint.
	HealthHandler gin.HandlerFunc
}
