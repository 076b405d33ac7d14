package notification

import (
	"context"
	"fmt"

	"servease/models"
	"servease/utils"

	"firebase.google.com/go/v4/messaging"
)

// NotificationService delivers push notifications. Delivery is always
// best-effort: callers on the claim path never see these errors, the
// asynq worker logs and retries them.
type NotificationService interface {
	SendPush(ctx context.Context, p models.NotificationPayload) error
}

// DefaultNotificationService is the FCM-backed implementation.
type DefaultNotificationService struct{}

// SendPush sends a single push to the payload's token.
func (s *DefaultNotificationService) SendPush(ctx context.Context, p models.NotificationPayload) error {
	if utils.FCMClient == nil {
		return fmt.Errorf("SendPush: messaging client not configured")
	}
	if p.Token == "" {
		return fmt.Errorf("SendPush: payload for consultation %s has no token", p.ConsultationID)
	}

	data := p.Data
	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["target"]; !ok {
		data["target"] = p.Target
	}
	data["consultationId"] = p.ConsultationID

	msg := &messaging.Message{
		Token: p.Token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("SendPush: failed to send FCM message for consultation %s: %w", p.ConsultationID, err)
	}
	return nil
}
