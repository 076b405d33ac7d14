package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"servease/models"
	"servease/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config carries the transport knobs. Zero values fall back to the
// defaults below.
type Config struct {
	ServerURL            string
	MaxReconnectAttempts int
	BackoffBase          time.Duration
	HandshakeTimeout     time.Duration
	HeartbeatInterval    time.Duration
}

const (
	defaultMaxReconnectAttempts = 8
	defaultBackoffBase          = 500 * time.Millisecond
	defaultHandshakeTimeout     = 10 * time.Second
	defaultHeartbeatInterval    = 20 * time.Second
)

// Wire frames exchanged with the dispatch server.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRequest struct {
	Event string   `json:"event"`
	Data  joinData `json:"data"`
}

type joinData struct {
	ProviderID string `json:"providerId"`
}

// WebsocketTransport is the gorilla/websocket implementation of Transport.
type WebsocketTransport struct {
	cfg       Config
	announcer Alert
	sink      OfferSink
	presence  *redis.Client
	logger    *zap.Logger

	// opMu serializes Connect/Disconnect end to end, so two racing calls
	// can never both observe "not connected" and each spawn a loop. mu
	// only guards the state snapshot and is safe to take from the loop.
	opMu sync.Mutex

	mu         sync.Mutex
	providerID string
	cancel     context.CancelFunc
	done       chan struct{}
	connected  bool
	attempts   int
}

// NewWebsocketTransport wires a transport. presence may be nil, in which
// case no presence keys are maintained.
func NewWebsocketTransport(cfg Config, announcer Alert, sink OfferSink, presence *redis.Client, logger *zap.Logger) *WebsocketTransport {
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebsocketTransport{
		cfg:       cfg,
		announcer: announcer,
		sink:      sink,
		presence:  presence,
		logger:    logger,
	}
}

// Connect binds the transport to the provider identity. Already being
// connected to the same identity is a no-op; a different identity tears
// the previous connection down first.
func (t *WebsocketTransport) Connect(providerID string) {
	if providerID == "" || t.cfg.ServerURL == "" {
		// Realtime dispatch is an enhancement, not a requirement.
		t.logger.Info("dispatch transport not started",
			zap.Bool("providerConfigured", providerID != ""),
			zap.Bool("endpointConfigured", t.cfg.ServerURL != ""))
		return
	}

	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.mu.Lock()
	if t.cancel != nil && t.providerID == providerID {
		select {
		case <-t.done:
			// Loop gave up after exhausting reconnect attempts; fall
			// through and start a fresh one.
		default:
			t.mu.Unlock()
			return
		}
	}
	prevCancel, prevDone, prevID := t.cancel, t.done, t.providerID
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
		t.clearPresence(prevID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	t.mu.Lock()
	t.providerID = providerID
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go t.run(ctx, providerID, done)
}

// Disconnect stops the read loop and closes the connection. No-op when
// not connected. Claims already in flight against the store complete
// independently.
func (t *WebsocketTransport) Disconnect() {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.mu.Lock()
	cancel, done, providerID := t.cancel, t.done, t.providerID
	t.cancel, t.done = nil, nil
	t.providerID = ""
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.clearPresence(providerID)
	t.logger.Info("dispatch transport disconnected", zap.String("providerId", providerID))
}

// Status returns a snapshot of the connection state.
func (t *WebsocketTransport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Connected:  t.connected,
		ProviderID: t.providerID,
		Attempts:   t.attempts,
	}
}

func (t *WebsocketTransport) run(ctx context.Context, providerID string, done chan struct{}) {
	defer close(done)

	attempts := 0
	backoff := t.cfg.BackoffBase

	for {
		conn, err := t.dialAndJoin(ctx, providerID)
		if err != nil {
			attempts++
			t.setState(false, attempts)
			if attempts >= t.cfg.MaxReconnectAttempts {
				t.logger.Error("dispatch server unreachable, giving up until next connect",
					zap.String("providerId", providerID),
					zap.Int("attempts", attempts),
					zap.Error(err))
				return
			}
			t.logger.Warn("dispatch connection failed, retrying",
				zap.Int("attempt", attempts),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		attempts = 0
		backoff = t.cfg.BackoffBase
		t.setState(true, 0)
		t.markPresent(providerID)
		t.logger.Info("dispatch channel joined", zap.String("providerId", providerID))

		readErr := t.readLoop(ctx, conn, providerID)
		conn.Close()
		t.setState(false, 0)

		if ctx.Err() != nil {
			return
		}
		t.logger.Warn("dispatch connection lost, reconnecting", zap.Error(readErr))
	}
}

func (t *WebsocketTransport) dialAndJoin(ctx context.Context, providerID string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: t.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, t.cfg.ServerURL, nil)
	if err != nil {
		return nil, err
	}

	join := joinRequest{Event: "join", Data: joinData{ProviderID: providerID}}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// readLoop consumes frames until the connection drops or ctx is
// cancelled. There is exactly one loop per connection; reconnects go back
// through run, so handlers are never attached twice.
func (t *WebsocketTransport) readLoop(ctx context.Context, conn *websocket.Conn, providerID string) error {
	// Unblock ReadJSON when Disconnect cancels the context.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	go t.heartbeat(ctx, conn, providerID, watchDone)

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		t.handleFrame(f, providerID)
	}
}

func (t *WebsocketTransport) heartbeat(ctx context.Context, conn *websocket.Conn, providerID string, stop chan struct{}) {
	ticker := time.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			t.markPresent(providerID)
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				t.logger.Debug("heartbeat ping failed", zap.Error(err))
			}
		}
	}
}

func (t *WebsocketTransport) handleFrame(f frame, providerID string) {
	switch f.Event {
	case "joined":
		// Informational only; correctness does not depend on the echo.
		t.logger.Info("join confirmed by dispatch server", zap.String("providerId", providerID))
	case "new-booking", "new-offer":
		var offer models.Offer
		if err := json.Unmarshal(f.Data, &offer); err != nil {
			t.logger.Warn("undecodable offer payload dropped", zap.Error(err))
			return
		}
		// Sound before UI callbacks: the alert must not wait on them.
		t.announcer.StartContinuousAlert()
		t.sink.Publish(offer)
	default:
		t.logger.Debug("unhandled dispatch event", zap.String("event", f.Event))
	}
}

func (t *WebsocketTransport) setState(connected bool, attempts int) {
	t.mu.Lock()
	t.connected = connected
	t.attempts = attempts
	t.mu.Unlock()
}

func (t *WebsocketTransport) markPresent(providerID string) {
	if t.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := t.presence.Set(ctx, utils.PresencePrefix+providerID, "1", utils.PresenceTTL).Err(); err != nil {
		t.logger.Debug("presence refresh failed", zap.Error(err))
	}
}

func (t *WebsocketTransport) clearPresence(providerID string) {
	if t.presence == nil || providerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := t.presence.Del(ctx, utils.PresencePrefix+providerID).Err(); err != nil {
		t.logger.Debug("presence clear failed", zap.Error(err))
	}
}
