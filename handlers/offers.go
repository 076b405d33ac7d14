package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	consultationRepo "servease/database/repository/consultation"
	"servease/models"
	"servease/services/alert"
	"servease/services/claim"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OfferHandler serves the accept/reject decisions and the polling
// fallback for degraded realtime transport.
type OfferHandler struct {
	Claim     claim.ClaimService
	Repo      consultationRepo.ConsultationRepository
	Announcer alert.Announcer
}

func NewOfferHandler(claimSvc claim.ClaimService, repo consultationRepo.ConsultationRepository, announcer alert.Announcer) *OfferHandler {
	return &OfferHandler{Claim: claimSvc, Repo: repo, Announcer: announcer}
}

// PendingOffers lists claimable consultations, optionally filtered by
// service type. This keeps the booking flow usable when the websocket
// channel is down.
func (h *OfferHandler) PendingOffers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	pending, err := h.Repo.ListPending(ctx, c.Query("serviceType"))
	if err != nil {
		getLogger(c).Error("listing pending offers failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending offers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"offers": pending})
}

// AcceptOffer claims the consultation for the authenticated provider. Any
// UI decision silences the alert first, win or lose.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	providerID := c.GetString("providerID")
	offer := models.Offer{ConsultationID: c.Param("id")}

	var input struct {
		Profile models.ProviderProfile `json:"profile"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
	}

	h.Announcer.StopContinuousAlert()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	claimed, err := h.Claim.AcceptOffer(ctx, offer, providerID, input.Profile)
	if err != nil {
		h.renderClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"consultation": claimed})
}

// RejectOffer records the provider's rejection.
func (h *OfferHandler) RejectOffer(c *gin.Context) {
	providerID := c.GetString("providerID")
	offer := models.Offer{ConsultationID: c.Param("id")}

	var input struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
	}

	h.Announcer.StopContinuousAlert()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Claim.RejectOffer(ctx, offer, providerID, input.Reason); err != nil {
		h.renderClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.StatusRejected})
}

func (h *OfferHandler) renderClaimError(c *gin.Context, err error) {
	var validationErr claim.ValidationError
	var claimedErr claim.AlreadyClaimedError
	var notClaimableErr claim.NotClaimableError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &claimedErr):
		// Expected race outcome: inform, never retry.
		c.JSON(http.StatusConflict, gin.H{"error": "offer no longer available"})
	case errors.As(err, &notClaimableErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":  "offer no longer available",
			"status": notClaimableErr.Status,
		})
	case errors.Is(err, consultationRepo.ErrConsultationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "consultation not found"})
	default:
		getLogger(c).Error("claim resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "claim resolution failed"})
	}
}
