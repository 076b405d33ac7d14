package registry

import (
	"sync"
	"time"

	"servease/models"

	"go.uber.org/zap"
)

// Callback receives every offer published after it subscribes.
type Callback func(models.Offer)

// Policy controls what happens to an offer that arrives with no
// subscribers. With BufferLatest set, the single most recent unconsumed
// offer is retained for up to BufferTTL and handed to the next subscriber;
// otherwise the offer is dropped for presentation purposes (the alert
// still fires, that is the announcer's job).
type Policy struct {
	BufferLatest bool
	BufferTTL    time.Duration
}

type bufferedOffer struct {
	offer models.Offer
	at    time.Time
}

// Registry decouples transport events from presentation layers. It is a
// plain callback list: no queueing, no backpressure, last event wins.
type Registry struct {
	mu       sync.Mutex
	subs     map[int]Callback
	nextID   int
	policy   Policy
	buffered *bufferedOffer
	now      func() time.Time
	logger   *zap.Logger
}

// New returns an empty registry with the given zero-subscriber policy.
func New(policy Policy, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		subs:   make(map[int]Callback),
		policy: policy,
		now:    time.Now,
		logger: logger,
	}
}

// Subscribe registers a callback and returns a closure that removes
// exactly that callback. If a buffered offer is still fresh, the new
// subscriber receives it immediately and the buffer is cleared.
func (r *Registry) Subscribe(cb Callback) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = cb

	var replay *models.Offer
	if r.buffered != nil {
		if r.now().Sub(r.buffered.at) <= r.policy.BufferTTL {
			o := r.buffered.offer
			replay = &o
		}
		r.buffered = nil
	}
	r.mu.Unlock()

	if replay != nil {
		r.logger.Info("delivering buffered offer to late subscriber",
			zap.String("consultationId", replay.ConsultationID))
		invoke(cb, *replay, r.logger)
	}

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Publish delivers the offer to every registered callback. A panicking
// callback is isolated; the rest still run.
func (r *Registry) Publish(offer models.Offer) {
	r.mu.Lock()
	cbs := make([]Callback, 0, len(r.subs))
	for _, cb := range r.subs {
		cbs = append(cbs, cb)
	}
	if len(cbs) == 0 {
		if r.policy.BufferLatest {
			r.buffered = &bufferedOffer{offer: offer, at: r.now()}
		}
		r.mu.Unlock()
		r.logger.Warn("offer received with zero subscribers",
			zap.String("consultationId", offer.ConsultationID),
			zap.Bool("buffered", r.policy.BufferLatest))
		return
	}
	r.mu.Unlock()

	for _, cb := range cbs {
		invoke(cb, offer, r.logger)
	}
}

// SubscriberCount reports how many callbacks are currently registered.
func (r *Registry) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func invoke(cb Callback, offer models.Offer, logger *zap.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("offer callback panicked",
				zap.String("consultationId", offer.ConsultationID),
				zap.Any("panic", rec))
		}
	}()
	cb(offer)
}
