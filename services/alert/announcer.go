package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Timing parameters for the in-process alert loop. Zero values fall back
// to the defaults below; tests inject short intervals.
type Config struct {
	PulseInterval    time.Duration
	LoadPollInterval time.Duration
	LoadTimeout      time.Duration
}

const (
	defaultPulseInterval    = 2 * time.Second
	defaultLoadPollInterval = 200 * time.Millisecond
	defaultLoadTimeout      = 5 * time.Second
)

type mode int

const (
	modeIdle mode = iota
	modeBackground
	modeLoop
)

// DefaultAnnouncer prefers the background-capable alerter when available
// and falls back to an in-process pulse loop of sound plus haptics.
type DefaultAnnouncer struct {
	cfg        Config
	player     Player
	haptics    Haptics
	background BackgroundAlerter
	logger     *zap.Logger

	mu     sync.Mutex
	mode   mode
	stopCh chan struct{}
}

// NewAnnouncer wires an announcer from its capabilities. player and
// haptics are required for the fallback loop; background may be nil.
func NewAnnouncer(cfg Config, player Player, haptics Haptics, background BackgroundAlerter, logger *zap.Logger) *DefaultAnnouncer {
	if cfg.PulseInterval <= 0 {
		cfg.PulseInterval = defaultPulseInterval
	}
	if cfg.LoadPollInterval <= 0 {
		cfg.LoadPollInterval = defaultLoadPollInterval
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAnnouncer{
		cfg:        cfg,
		player:     player,
		haptics:    haptics,
		background: background,
		logger:     logger,
	}
}

// StartContinuousAlert begins ringing. No-op while already ringing. The
// background service start is a network send and runs outside the lock:
// a concurrent StopContinuousAlert must never wait behind it.
func (a *DefaultAnnouncer) StartContinuousAlert() {
	a.mu.Lock()
	if a.mode != modeIdle {
		a.mu.Unlock()
		return
	}

	if a.background != nil && a.background.Available() {
		// Claim background mode first so a concurrent Stop sees the alert.
		a.mode = modeBackground
		a.mu.Unlock()

		err := a.background.Start()

		a.mu.Lock()
		if a.mode != modeBackground {
			// Stopped while the start push was in flight; make sure the
			// device ends on a stop.
			a.mu.Unlock()
			if err == nil {
				if stopErr := a.background.Stop(); stopErr != nil {
					a.logger.Warn("background alert service stop failed", zap.Error(stopErr))
				}
			}
			return
		}
		if err == nil {
			a.mu.Unlock()
			a.logger.Info("alert started via background service")
			return
		}
		a.logger.Warn("background alert service failed, falling back to in-process loop", zap.Error(err))
	}

	a.stopCh = make(chan struct{})
	a.mode = modeLoop
	go a.loop(a.stopCh)
	a.mu.Unlock()
}

// StopContinuousAlert cancels the alert. Idempotent, and safe to call
// concurrently with an in-flight pulse or background start.
func (a *DefaultAnnouncer) StopContinuousAlert() {
	a.mu.Lock()
	mode := a.mode
	var stopCh chan struct{}
	if mode == modeLoop {
		stopCh = a.stopCh
		a.stopCh = nil
	}
	a.mode = modeIdle
	a.mu.Unlock()

	switch mode {
	case modeBackground:
		if err := a.background.Stop(); err != nil {
			a.logger.Warn("background alert service stop failed", zap.Error(err))
		}
	case modeLoop:
		close(stopCh)
	}
}

// Release stops any loop and frees the audio resource.
func (a *DefaultAnnouncer) Release() {
	a.StopContinuousAlert()
	a.player.Release()
}

// Ringing reports whether an alert is currently active.
func (a *DefaultAnnouncer) Ringing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode != modeIdle
}

func (a *DefaultAnnouncer) loop(stop chan struct{}) {
	// First pulse fires immediately. Vibration never waits on the asset.
	a.haptics.Vibrate()
	loaded := a.ensureLoaded(stop)
	a.playIfLoaded(loaded)

	ticker := time.NewTicker(a.cfg.PulseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.haptics.Vibrate()
			if !loaded {
				// One retry per pulse once the initial polling window gave up.
				loaded = a.player.Load(context.Background()) == nil
			}
			a.playIfLoaded(loaded)
		}
	}
}

// ensureLoaded lazily loads the alert asset, polling on a bounded schedule
// before giving up for this ring.
func (a *DefaultAnnouncer) ensureLoaded(stop chan struct{}) bool {
	if a.player.Loaded() {
		return true
	}

	deadline := time.Now().Add(a.cfg.LoadTimeout)
	for {
		if err := a.player.Load(context.Background()); err == nil {
			return true
		}
		if time.Now().After(deadline) {
			a.logger.Warn("alert sound asset unavailable, continuing with haptics only")
			return false
		}
		select {
		case <-stop:
			return false
		case <-time.After(a.cfg.LoadPollInterval):
		}
	}
}

func (a *DefaultAnnouncer) playIfLoaded(loaded bool) {
	if !loaded {
		return
	}
	if err := a.player.Play(); err != nil {
		a.logger.Warn("alert playback failed", zap.Error(err))
	}
}
