package alert

import "context"

// Announcer produces a persistent, attention-grabbing alert until told to
// stop. At most one alert loop runs per process; the announcer owns the
// repeat timer and the audio resource exclusively.
type Announcer interface {
	StartContinuousAlert()
	StopContinuousAlert()
	// Release stops any loop and frees the audio resource. For app teardown.
	Release()
}

// Player is the playable alert asset. Load may fail while the asset is
// still being provisioned; the announcer retries with bounded polling and
// never lets a missing asset crash the loop.
type Player interface {
	Load(ctx context.Context) error
	Loaded() bool
	Play() error
	Release()
}

// Haptics fires a vibration pattern on the provider's device. It is
// decoupled from audio: vibration fires even when the sound fails.
type Haptics interface {
	Vibrate()
}

// BackgroundAlerter is an OS-level alert mechanism that keeps ringing
// while the provider app is backgrounded. When Available reports false,
// the in-process loop is used instead.
type BackgroundAlerter interface {
	Available() bool
	Start() error
	Stop() error
}
