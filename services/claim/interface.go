package claim

import (
	"context"

	consultationRepo "servease/database/repository/consultation"
	"servease/models"
	"servease/services/notification"

	"go.uber.org/zap"
)

// ClaimService resolves a provider's decision on an offer against the
// shared store.
type ClaimService interface {
	// AcceptOffer transitions the consultation from pending to accepted by
	// this provider, or reports how the race was lost. Accepting the same
	// offer twice with the same provider is a no-op success.
	AcceptOffer(ctx context.Context, offer models.Offer, providerID string, profile models.ProviderProfile) (*models.Consultation, error)

	// RejectOffer records the rejection with a reason.
	RejectOffer(ctx context.Context, offer models.Offer, providerID, reason string) error
}

// DefaultClaimService is the production implementation.
type DefaultClaimService struct {
	Repo     consultationRepo.ConsultationRepository
	Notifier notification.Dispatcher
	Logger   *zap.Logger
}
