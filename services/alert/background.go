package alert

import (
	"context"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// fcmAlerter is the background-capable alert mechanism: high-priority data
// messages instruct the provider device's native alert service to start or
// stop its own ring loop, so alerting survives the app being backgrounded.
type fcmAlerter struct {
	client      *messaging.Client
	deviceToken string
	logger      *zap.Logger
}

// NewFCMAlerter returns a BackgroundAlerter that drives the device-side
// alert service over FCM. Unavailable when messaging is not configured.
func NewFCMAlerter(client *messaging.Client, deviceToken string, logger *zap.Logger) BackgroundAlerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fcmAlerter{client: client, deviceToken: deviceToken, logger: logger}
}

func (f *fcmAlerter) Available() bool {
	return f.client != nil && f.deviceToken != ""
}

func (f *fcmAlerter) Start() error {
	return f.send("alert_start")
}

func (f *fcmAlerter) Stop() error {
	return f.send("alert_stop")
}

func (f *fcmAlerter) send(action string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := &messaging.Message{
		Token: f.deviceToken,
		Data: map[string]string{
			"type":   action,
			"sentAt": time.Now().UTC().Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "background",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{ContentAvailable: true},
			},
		},
	}

	_, err := f.client.Send(ctx, msg)
	return err
}

// fcmHaptics delivers the per-pulse vibration as a data-only push carrying
// the pattern. Failures are logged; a pulse never fails on haptics.
type fcmHaptics struct {
	client      *messaging.Client
	deviceToken string
	pattern     string
	logger      *zap.Logger
}

// NewFCMHaptics returns a Haptics implementation pushing vibration
// commands to the provider device. Falls back to a no-op when messaging
// is unconfigured.
func NewFCMHaptics(client *messaging.Client, deviceToken string, logger *zap.Logger) Haptics {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil || deviceToken == "" {
		return nopHaptics{}
	}
	return &fcmHaptics{
		client:      client,
		deviceToken: deviceToken,
		pattern:     "0,500,200,500",
		logger:      logger,
	}
}

func (h *fcmHaptics) Vibrate() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := &messaging.Message{
		Token: h.deviceToken,
		Data: map[string]string{
			"type":             "vibrate",
			"vibrationPattern": h.pattern,
		},
		Android: &messaging.AndroidConfig{Priority: "high"},
	}
	if _, err := h.client.Send(ctx, msg); err != nil {
		h.logger.Warn("haptic push failed", zap.Error(err))
	}
}

type nopHaptics struct{}

func (nopHaptics) Vibrate() {}
