package consultationRepo

import (
	"context"

	"servease/database"
	"servease/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConsultationRepository is the client-side view of the shared consultation
// store. Only Claim and Reject may touch the assignment fields.
type ConsultationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Consultation, error)
	Insert(ctx context.Context, c models.Consultation) (string, error)
	ListPending(ctx context.Context, serviceType string) ([]models.Consultation, error)

	// Claim atomically transitions the record from pending to accepted by
	// the given provider, writing the denormalized profile fields in the
	// same update. A claim already held by the same provider matches again
	// (duplicate accepts are no-ops). Returns ErrNoClaimableMatch when the
	// conditional update matched nothing.
	Claim(ctx context.Context, id, providerID string, profile models.ProviderProfile) (*models.Consultation, error)

	// Reject writes status=rejected plus the reason. No exclusivity
	// condition: rejection does not contend for the record.
	Reject(ctx context.Context, id, providerID, reason string) error
}

type mongoConsultationRepo struct {
	coll *mongo.Collection
}

// NewMongoConsultationRepo returns a ConsultationRepository backed by MongoDB.
func NewMongoConsultationRepo() ConsultationRepository {
	db := database.MongoClient.Database("servease")
	repo := &mongoConsultationRepo{
		coll: db.Collection("consultations"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		zap.L().Warn("consultation repo: could not ensure indexes", zap.Error(err))
	}
	return repo
}
