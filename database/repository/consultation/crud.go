package consultationRepo

import (
	"context"
	"errors"
	"time"

	"servease/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrConsultationNotFound is returned when no record exists for the id.
var ErrConsultationNotFound = errors.New("consultation not found")

// GetByID returns a consultation by its ID.
func (r *mongoConsultationRepo) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	var c models.Consultation
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Insert creates a new consultation record and returns its ID. Records are
// normally created by the booking backend; this path exists for seeding
// and tests.
func (r *mongoConsultationRepo) Insert(ctx context.Context, c models.Consultation) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// ListPending fetches unclaimed consultations, optionally filtered by
// service type. This backs the polling fallback when the realtime channel
// is degraded.
func (r *mongoConsultationRepo) ListPending(ctx context.Context, serviceType string) ([]models.Consultation, error) {
	filter := bson.M{"status": models.StatusPending}
	if serviceType != "" {
		filter["serviceType"] = serviceType
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Consultation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
