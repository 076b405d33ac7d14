package handlers

import (
	"net/http"

	"servease/services/dispatch"
	"servease/utils"

	"github.com/gin-gonic/gin"
)

// DispatchHandler manages the realtime channel binding for the
// authenticated provider.
type DispatchHandler struct {
	Transport dispatch.Transport
}

func NewDispatchHandler(transport dispatch.Transport) *DispatchHandler {
	return &DispatchHandler{Transport: transport}
}

// Connect binds the dispatch channel to the authenticated provider. A
// repeat call with the same identity is a no-op; a different identity
// rebinds the session.
func (h *DispatchHandler) Connect(c *gin.Context) {
	providerID := c.GetString("providerID")
	h.Transport.Connect(providerID)
	c.JSON(http.StatusOK, h.Transport.Status())
}

// Disconnect tears the channel down. Safe when not connected.
func (h *DispatchHandler) Disconnect(c *gin.Context) {
	h.Transport.Disconnect()
	c.JSON(http.StatusOK, h.Transport.Status())
}

// Status reports the transport snapshot.
func (h *DispatchHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Transport.Status())
}

// Health reports the latest store/cache health snapshot.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
