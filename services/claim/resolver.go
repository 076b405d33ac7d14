package claim

import (
	"context"
	"errors"
	"fmt"

	consultationRepo "servease/database/repository/consultation"
	"servease/models"

	"go.uber.org/zap"
)

// AcceptOffer claims the consultation through the repository's atomic
// conditional update. There is no read-then-write window: the store itself
// decides the race, and a lost race surfaces as ErrNoClaimableMatch which
// a single follow-up read classifies.
func (s *DefaultClaimService) AcceptOffer(ctx context.Context, offer models.Offer, providerID string, profile models.ProviderProfile) (*models.Consultation, error) {
	if offer.ConsultationID == "" {
		return nil, ValidationError{Field: "consultationId"}
	}
	if providerID == "" {
		return nil, ValidationError{Field: "providerId"}
	}

	claimed, err := s.Repo.Claim(ctx, offer.ConsultationID, providerID, profile)
	if err == nil {
		s.logger().Info("offer claimed",
			zap.String("consultationId", claimed.ID),
			zap.String("providerId", providerID))
		s.notifyCustomer(claimed)
		return claimed, nil
	}

	if !errors.Is(err, consultationRepo.ErrNoClaimableMatch) {
		return nil, fmt.Errorf("accept offer %s: %w", offer.ConsultationID, err)
	}

	// The conditional update matched nothing; read once to say why.
	current, getErr := s.Repo.GetByID(ctx, offer.ConsultationID)
	if getErr != nil {
		if errors.Is(getErr, consultationRepo.ErrConsultationNotFound) {
			return nil, getErr
		}
		return nil, fmt.Errorf("classify lost claim on %s: %w", offer.ConsultationID, getErr)
	}

	if current.ProviderID != "" && current.ProviderID != providerID {
		return nil, AlreadyClaimedError{
			ConsultationID: current.ID,
			ProviderID:     current.ProviderID,
		}
	}
	return nil, NotClaimableError{
		ConsultationID: current.ID,
		Status:         current.Status,
	}
}

// RejectOffer writes the rejection. Rejection does not contend for
// exclusivity, so there is no race handling here.
func (s *DefaultClaimService) RejectOffer(ctx context.Context, offer models.Offer, providerID, reason string) error {
	if offer.ConsultationID == "" {
		return ValidationError{Field: "consultationId"}
	}
	if providerID == "" {
		return ValidationError{Field: "providerId"}
	}
	if reason == "" {
		reason = "declined by provider"
	}

	if err := s.Repo.Reject(ctx, offer.ConsultationID, providerID, reason); err != nil {
		return fmt.Errorf("reject offer %s: %w", offer.ConsultationID, err)
	}

	s.logger().Info("offer rejected",
		zap.String("consultationId", offer.ConsultationID),
		zap.String("providerId", providerID),
		zap.String("reason", reason))
	return nil
}

// notifyCustomer fires the best-effort acceptance push. Failure is logged
// and never unwinds the claim.
func (s *DefaultClaimService) notifyCustomer(c *models.Consultation) {
	if s.Notifier == nil || c.CustomerFCMToken == "" {
		return
	}
	if err := s.Notifier.EnqueueCustomerAccepted(c); err != nil {
		s.logger().Warn("customer notification dispatch failed",
			zap.String("consultationId", c.ID),
			zap.Error(err))
	}
}

func (s *DefaultClaimService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.L()
}
