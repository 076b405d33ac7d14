package models

// NotificationPayload is the asynq task payload for a best-effort push.
// Target selects the audience: "customer" pushes go to the consultation's
// denormalized customer token, "provider" pushes to this provider's own
// device (used by the background alert path).
type NotificationPayload struct {
	ConsultationID string            `json:"consultationId"`
	Token          string            `json:"token"`
	Target         string            `json:"target"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
}
