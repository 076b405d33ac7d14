package tasks

import (
	"encoding/json"
	"time"

	"servease/models"

	"github.com/hibiken/asynq"
)

const TypeSendNotification = "notification:send"

func NewNotificationTask(payload models.NotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendNotification, b)
	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(15 * time.Second),
	}

	return task, opts, nil
}
