package notification

import (
	"fmt"

	"servease/models"
	"servease/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher hands a push off to the background queue without awaiting
// delivery. The claim path depends on this, not on NotificationService,
// so a slow or dead FCM can never stall an accept.
type Dispatcher interface {
	EnqueueCustomerAccepted(c *models.Consultation) error
}

// AsynqDispatcher enqueues notification tasks over Redis.
type AsynqDispatcher struct {
	Client *asynq.Client
	Logger *zap.Logger
}

// EnqueueCustomerAccepted queues the "your booking was accepted" push for
// the consultation's customer.
func (d *AsynqDispatcher) EnqueueCustomerAccepted(c *models.Consultation) error {
	payload := models.NotificationPayload{
		ConsultationID: c.ID,
		Token:          c.CustomerFCMToken,
		Target:         "customer",
		Title:          "Booking accepted",
		Body:           fmt.Sprintf("%s accepted your %s request and will be in touch shortly.", c.ProviderName, c.ServiceType),
		Data: map[string]string{
			"type":          "booking_accepted",
			"providerName":  c.ProviderName,
			"providerPhone": c.ProviderPhone,
		},
	}

	task, opts, err := tasks.NewNotificationTask(payload)
	if err != nil {
		return fmt.Errorf("build notification task: %w", err)
	}
	if _, err := d.Client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueue notification task: %w", err)
	}

	if d.Logger != nil {
		d.Logger.Debug("customer notification enqueued", zap.String("consultationId", c.ID))
	}
	return nil
}
