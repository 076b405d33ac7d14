package consultationRepo

import (
	"context"
	"errors"
	"fmt"

	"servease/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoClaimableMatch is returned when the conditional claim update matched
// no document: the record is gone, already claimed by another provider, or
// no longer pending. Callers classify with a follow-up read.
var ErrNoClaimableMatch = errors.New("no claimable consultation matched")

// Claim performs the accept as a single conditional update. The filter
// admits exactly two states: still pending, or already accepted by this
// same provider. Concurrent claims from different providers therefore
// resolve inside Mongo's per-document atomicity; at most one conditional
// update can observe status=="pending".
func (r *mongoConsultationRepo) Claim(ctx context.Context, id, providerID string, profile models.ProviderProfile) (*models.Consultation, error) {
	filter := bson.M{
		"id": id,
		"$or": bson.A{
			bson.M{"status": models.StatusPending},
			bson.M{"status": models.StatusAccepted, "providerId": providerID},
		},
	}

	update := bson.M{
		"$set": bson.M{
			"status":         models.StatusAccepted,
			"providerId":     providerID,
			"providerName":   profile.Name,
			"providerPhone":  profile.Phone,
			"providerPhoto":  profile.Photo,
			"providerRating": profile.Rating,
		},
		"$currentDate": bson.M{"updatedAt": true},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var claimed models.Consultation
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&claimed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoClaimableMatch
		}
		return nil, fmt.Errorf("claim update failed: %w", err)
	}
	return &claimed, nil
}

// Reject writes the rejection unconditionally. The provider reference is
// recorded so the backend can avoid re-offering the job to the same
// provider.
func (r *mongoConsultationRepo) Reject(ctx context.Context, id, providerID, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"status":          models.StatusRejected,
			"rejectionReason": reason,
			"rejectedBy":      providerID,
		},
		"$currentDate": bson.M{"updatedAt": true},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("reject update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConsultationNotFound
	}
	return nil
}
