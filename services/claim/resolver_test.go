package claim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	consultationRepo "servease/database/repository/consultation"
	"servease/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo mirrors the store's claim semantics: the conditional update
// is evaluated atomically under one lock, exactly like Mongo's
// per-document FindOneAndUpdate.
type memoryRepo struct {
	mu      sync.Mutex
	records map[string]*models.Consultation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*models.Consultation)}
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, consultationRepo.ErrConsultationNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memoryRepo) Insert(_ context.Context, c models.Consultation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	r.records[c.ID] = &c
	return c.ID, nil
}

func (r *memoryRepo) ListPending(_ context.Context, serviceType string) ([]models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Consultation
	for _, c := range r.records {
		if c.Status != models.StatusPending {
			continue
		}
		if serviceType != "" && c.ServiceType != serviceType {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *memoryRepo) Claim(_ context.Context, id, providerID string, profile models.ProviderProfile) (*models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.records[id]
	if !ok {
		return nil, consultationRepo.ErrNoClaimableMatch
	}
	claimable := c.Status == models.StatusPending ||
		(c.Status == models.StatusAccepted && c.ProviderID == providerID)
	if !claimable {
		return nil, consultationRepo.ErrNoClaimableMatch
	}

	c.Status = models.StatusAccepted
	c.ProviderID = providerID
	c.ProviderName = profile.Name
	c.ProviderPhone = profile.Phone
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (r *memoryRepo) Reject(_ context.Context, id, providerID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return consultationRepo.ErrConsultationNotFound
	}
	c.Status = models.StatusRejected
	c.RejectionReason = reason
	return nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	enqueued []string
	err      error
}

func (d *recordingDispatcher) EnqueueCustomerAccepted(c *models.Consultation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, c.ID)
	return nil
}

func newService(repo consultationRepo.ConsultationRepository, d *recordingDispatcher) *DefaultClaimService {
	return &DefaultClaimService{Repo: repo, Notifier: d}
}

func seedPending(t *testing.T, repo *memoryRepo, id string) {
	t.Helper()
	_, err := repo.Insert(context.Background(), models.Consultation{
		ID:               id,
		CustomerName:     "Asha",
		ServiceType:      "Plumber",
		CustomerFCMToken: "tok-" + id,
		Status:           models.StatusPending,
	})
	require.NoError(t, err)
}

func TestAcceptOfferClaimsPendingRecord(t *testing.T) {
	repo := newMemoryRepo()
	dispatcher := &recordingDispatcher{}
	svc := newService(repo, dispatcher)
	seedPending(t, repo, "c1")

	claimed, err := svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "c1"}, "prov-a",
		models.ProviderProfile{Name: "Ravi", Phone: "123"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAccepted, claimed.Status)
	assert.Equal(t, "prov-a", claimed.ProviderID)
	assert.Equal(t, "Ravi", claimed.ProviderName)
	assert.Equal(t, []string{"c1"}, dispatcher.enqueued)
}

func TestAcceptOfferValidation(t *testing.T) {
	svc := newService(newMemoryRepo(), &recordingDispatcher{})

	_, err := svc.AcceptOffer(context.Background(), models.Offer{}, "prov-a", models.ProviderProfile{})
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "consultationId", vErr.Field)

	_, err = svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "c1"}, "", models.ProviderProfile{})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "providerId", vErr.Field)
}

func TestConcurrentAcceptsExactlyOneWins(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, &recordingDispatcher{})
	seedPending(t, repo, "c1")

	type outcome struct {
		provider string
		err      error
	}
	results := make(chan outcome, 2)

	start := make(chan struct{})
	for _, provider := range []string{"prov-a", "prov-b"} {
		go func(p string) {
			<-start
			_, err := svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "c1"}, p, models.ProviderProfile{Name: p})
			results <- outcome{provider: p, err: err}
		}(provider)
	}
	close(start)

	var winners, losers []string
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err == nil {
			winners = append(winners, res.provider)
			continue
		}
		var claimedErr AlreadyClaimedError
		require.ErrorAs(t, res.err, &claimedErr)
		losers = append(losers, res.provider)
	}

	require.Len(t, winners, 1, "exactly one provider must win")
	require.Len(t, losers, 1)

	final, err := repo.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, final.Status)
	assert.Equal(t, winners[0], final.ProviderID)
}

func TestDuplicateAcceptIsNoOpSuccess(t *testing.T) {
	repo := newMemoryRepo()
	dispatcher := &recordingDispatcher{}
	svc := newService(repo, dispatcher)
	seedPending(t, repo, "c1")

	offer := models.Offer{ConsultationID: "c1"}
	profile := models.ProviderProfile{Name: "Ravi"}

	first, err := svc.AcceptOffer(context.Background(), offer, "prov-a", profile)
	require.NoError(t, err)
	second, err := svc.AcceptOffer(context.Background(), offer, "prov-a", profile)
	require.NoError(t, err)

	assert.Equal(t, first.ProviderID, second.ProviderID)
	assert.Equal(t, models.StatusAccepted, second.Status)
}

func TestRejectThenAcceptFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, &recordingDispatcher{})
	seedPending(t, repo, "c2")

	err := svc.RejectOffer(context.Background(), models.Offer{ConsultationID: "c2"}, "prov-a", "too far away")
	require.NoError(t, err)

	_, err = svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "c2"}, "prov-a", models.ProviderProfile{})
	var notClaimable NotClaimableError
	require.ErrorAs(t, err, &notClaimable)
	assert.Equal(t, models.StatusRejected, notClaimable.Status)
}

func TestAcceptUnknownConsultation(t *testing.T) {
	svc := newService(newMemoryRepo(), &recordingDispatcher{})

	_, err := svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "ghost"}, "prov-a", models.ProviderProfile{})
	assert.True(t, errors.Is(err, consultationRepo.ErrConsultationNotFound))
}

func TestNotificationFailureDoesNotUnwindClaim(t *testing.T) {
	repo := newMemoryRepo()
	dispatcher := &recordingDispatcher{err: errors.New("queue down")}
	svc := newService(repo, dispatcher)
	seedPending(t, repo, "c1")

	claimed, err := svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "c1"}, "prov-a", models.ProviderProfile{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, claimed.Status)
}

func TestRejectDefaultsReason(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, &recordingDispatcher{})
	seedPending(t, repo, "c3")

	require.NoError(t, svc.RejectOffer(context.Background(), models.Offer{ConsultationID: "c3"}, "prov-a", ""))

	c, err := repo.GetByID(context.Background(), "c3")
	require.NoError(t, err)
	assert.Equal(t, "declined by provider", c.RejectionReason)
}
