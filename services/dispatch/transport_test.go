package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"servease/models"
	"servease/services/claim"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recorder keeps one ordered trace across the alert and the sink so tests
// can assert the alert fires before callbacks see the offer.
type recorder struct {
	mu     sync.Mutex
	events []string
	offers []models.Offer
}

func (r *recorder) StartContinuousAlert() {
	r.mu.Lock()
	r.events = append(r.events, "alert")
	r.mu.Unlock()
}

func (r *recorder) Publish(o models.Offer) {
	r.mu.Lock()
	r.events = append(r.events, "publish")
	r.offers = append(r.offers, o)
	r.mu.Unlock()
}

func (r *recorder) trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) received() []models.Offer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Offer(nil), r.offers...)
}

// dispatchServer is a minimal stand-in for the realtime dispatch endpoint:
// it upgrades, records join frames, and lets tests push frames down.
type dispatchServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu    sync.Mutex
	joins []string
	conns []*websocket.Conn
}

func newDispatchServer(t *testing.T) (*dispatchServer, string) {
	t.Helper()
	s := &dispatchServer{t: t}
	srv := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(srv.Close)
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (s *dispatchServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	var join joinRequest
	if err := conn.ReadJSON(&join); err != nil {
		conn.Close()
		return
	}

	s.mu.Lock()
	s.joins = append(s.joins, join.Data.ProviderID)
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	_ = conn.WriteJSON(frame{Event: "joined"})
	// Drain until the client goes away so the connection stays open.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			conn.Close()
			return
		}
	}
}

func (s *dispatchServer) joinCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.joins)
}

func (s *dispatchServer) send(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.conns, "no client connected yet")
	conn := s.conns[len(s.conns)-1]
	require.NoError(t, conn.WriteJSON(frame{Event: event, Data: data}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func newTestTransport(url string, rec *recorder) *WebsocketTransport {
	return NewWebsocketTransport(Config{
		ServerURL:            url,
		MaxReconnectAttempts: 3,
		BackoffBase:          5 * time.Millisecond,
	}, rec, rec, nil, zap.NewNop())
}

func TestConnectJoinsChannel(t *testing.T) {
	server, url := newDispatchServer(t)
	rec := &recorder{}
	tr := newTestTransport(url, rec)
	defer tr.Disconnect()

	tr.Connect("prov-1")

	waitFor(t, func() bool { return server.joinCount() == 1 })
	waitFor(t, func() bool { return tr.Status().Connected })

	server.mu.Lock()
	join := server.joins[0]
	server.mu.Unlock()
	assert.Equal(t, "prov-1", join)

	st := tr.Status()
	assert.Equal(t, "prov-1", st.ProviderID)
	assert.Zero(t, st.Attempts)
}

func TestOfferFrameAlertsBeforePublishing(t *testing.T) {
	server, url := newDispatchServer(t)
	rec := &recorder{}
	tr := newTestTransport(url, rec)
	defer tr.Disconnect()

	tr.Connect("prov-1")
	waitFor(t, func() bool { return tr.Status().Connected })

	server.send(t, "new-offer", models.Offer{
		ConsultationID: "c42",
		CustomerName:   "Asha",
		ServiceType:    "Electrician",
		Fee:            350,
	})

	waitFor(t, func() bool { return len(rec.received()) == 1 })

	offer := rec.received()[0]
	assert.Equal(t, "c42", offer.ConsultationID)
	assert.Equal(t, "Electrician", offer.ServiceType)
	assert.Equal(t, []string{"alert", "publish"}, rec.trace())
}

func TestLegacyBookingEventStillDelivers(t *testing.T) {
	server, url := newDispatchServer(t)
	rec := &recorder{}
	tr := newTestTransport(url, rec)
	defer tr.Disconnect()

	tr.Connect("prov-1")
	waitFor(t, func() bool { return tr.Status().Connected })

	server.send(t, "new-booking", models.Offer{ConsultationID: "c7"})
	waitFor(t, func() bool { return len(rec.received()) == 1 })
	assert.Equal(t, "c7", rec.received()[0].ConsultationID)
}

func TestUndecodableOfferIsDropped(t *testing.T) {
	server, url := newDispatchServer(t)
	rec := &recorder{}
	tr := newTestTransport(url, rec)
	defer tr.Disconnect()

	tr.Connect("prov-1")
	waitFor(t, func() bool { return tr.Status().Connected })

	server.mu.Lock()
	conn := server.conns[len(server.conns)-1]
	server.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"new-offer","data":"not an object"}`)))

	// A good frame afterwards still goes through.
	server.send(t, "new-offer", models.Offer{ConsultationID: "c8"})
	waitFor(t, func() bool { return len(rec.received()) == 1 })
	assert.Equal(t, "c8", rec.received()[0].ConsultationID)
	assert.NotContains(t, rec.trace()[:1], "publish")
}

func TestConnectSameProviderIsIdempotent(t *testing.T) {
	server, url := newDispatchServer(t)
	tr := newTestTransport(url, &recorder{})
	defer tr.Disconnect()

	tr.Connect("prov-1")
	waitFor(t, func() bool { return tr.Status().Connected })
	tr.Connect("prov-1")
	tr.Connect("prov-1")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, server.joinCount())
}

func TestConnectNewProviderReplacesOldChannel(t *testing.T) {
	server, url := newDispatchServer(t)
	tr := newTestTransport(url, &recorder{})
	defer tr.Disconnect()

	tr.Connect("prov-1")
	waitFor(t, func() bool { return server.joinCount() == 1 })
	tr.Connect("prov-2")
	waitFor(t, func() bool { return server.joinCount() == 2 })

	waitFor(t, func() bool { return tr.Status().Connected })
	assert.Equal(t, "prov-2", tr.Status().ProviderID)
}

func TestDisconnectWhenNeverConnected(t *testing.T) {
	tr := newTestTransport("ws://127.0.0.1:1", &recorder{})

	assert.NotPanics(t, func() {
		tr.Disconnect()
		tr.Disconnect()
	})
	assert.False(t, tr.Status().Connected)
}

func TestConnectWithoutIdentityOrEndpointIsNoOp(t *testing.T) {
	_, url := newDispatchServer(t)

	tr := newTestTransport(url, &recorder{})
	tr.Connect("")
	assert.False(t, tr.Status().Connected)
	assert.Empty(t, tr.Status().ProviderID)

	tr = newTestTransport("", &recorder{})
	tr.Connect("prov-1")
	assert.False(t, tr.Status().Connected)
}

func TestReconnectAfterServerDrop(t *testing.T) {
	server, url := newDispatchServer(t)
	tr := newTestTransport(url, &recorder{})
	defer tr.Disconnect()

	tr.Connect("prov-1")
	waitFor(t, func() bool { return server.joinCount() == 1 })

	server.mu.Lock()
	server.conns[0].Close()
	server.mu.Unlock()

	waitFor(t, func() bool { return server.joinCount() == 2 })
	waitFor(t, func() bool { return tr.Status().Connected })
}

func TestGivesUpAfterMaxAttemptsThenReconnects(t *testing.T) {
	// Nothing listens on this port, so every dial fails fast.
	tr := NewWebsocketTransport(Config{
		ServerURL:            "ws://127.0.0.1:1",
		MaxReconnectAttempts: 2,
		BackoffBase:          time.Millisecond,
	}, &recorder{}, &recorder{}, nil, zap.NewNop())

	tr.Connect("prov-1")
	waitFor(t, func() bool { return tr.Status().Attempts >= 2 && !tr.Status().Connected })
	// Let the retry loop finish exiting before reusing the transport.
	time.Sleep(20 * time.Millisecond)

	// After giving up, a fresh Connect with the same identity must start a
	// new attempt cycle rather than silently no-op.
	server, url := newDispatchServer(t)
	tr.cfg.ServerURL = url
	tr.Connect("prov-1")
	defer tr.Disconnect()

	waitFor(t, func() bool { return server.joinCount() == 1 })
}

// blockingRepo parks Claim until released, to hold a claim in flight.
type blockingRepo struct {
	entered chan struct{}
	release chan struct{}
	claimed models.Consultation
}

func (b *blockingRepo) GetByID(context.Context, string) (*models.Consultation, error) {
	return nil, nil
}
func (b *blockingRepo) Insert(context.Context, models.Consultation) (string, error) {
	return "", nil
}
func (b *blockingRepo) ListPending(context.Context, string) ([]models.Consultation, error) {
	return nil, nil
}
func (b *blockingRepo) Claim(_ context.Context, id, providerID string, _ models.ProviderProfile) (*models.Consultation, error) {
	close(b.entered)
	<-b.release
	c := b.claimed
	c.ID, c.ProviderID, c.Status = id, providerID, models.StatusAccepted
	return &c, nil
}
func (b *blockingRepo) Reject(context.Context, string, string, string) error {
	return nil
}

// Claims run against the store client, not the dispatch socket: tearing the
// channel down mid-claim must not interrupt the claim.
func TestDisconnectDoesNotInterruptInFlightClaim(t *testing.T) {
	_, url := newDispatchServer(t)
	tr := newTestTransport(url, &recorder{})
	tr.Connect("prov-1")
	waitFor(t, func() bool { return tr.Status().Connected })

	repo := &blockingRepo{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := &claim.DefaultClaimService{Repo: repo, Logger: zap.NewNop()}

	type result struct {
		c   *models.Consultation
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := svc.AcceptOffer(context.Background(), models.Offer{ConsultationID: "c1"}, "prov-1", models.ProviderProfile{})
		done <- result{c, err}
	}()

	<-repo.entered
	tr.Disconnect()
	close(repo.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, models.StatusAccepted, res.c.Status)
	assert.Equal(t, "prov-1", res.c.ProviderID)
}

func TestConcurrentConnectsKeepSingleChannel(t *testing.T) {
	server, url := newDispatchServer(t)
	tr := newTestTransport(url, &recorder{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Connect("prov-1")
		}()
	}
	wg.Wait()

	waitFor(t, func() bool { return tr.Status().Connected })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, server.joinCount(), "racing connects must share one channel")

	tr.Disconnect()
	assert.False(t, tr.Status().Connected)

	// No stray loop survives the disconnect to rejoin on its own.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, server.joinCount())
}

func TestConcurrentConnectDisconnectSettles(t *testing.T) {
	server, url := newDispatchServer(t)
	tr := newTestTransport(url, &recorder{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.Connect("prov-1")
		}()
		go func() {
			defer wg.Done()
			tr.Disconnect()
		}()
	}
	wg.Wait()

	tr.Disconnect()
	assert.False(t, tr.Status().Connected)
	assert.Empty(t, tr.Status().ProviderID)

	// Whatever interleaving happened, nothing keeps dialing afterwards.
	settled := server.joinCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, server.joinCount())
}
