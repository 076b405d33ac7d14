package models

import "time"

// Consultation statuses. A record is claimable only while pending.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
)

// Consultation is the durable booking record in the shared store. All
// provider clients subscribed to the same offer contend for the same
// record; the assignment fields are only ever written through the claim
// path.
type Consultation struct {
	ID            string  `bson:"id" json:"id"`
	CustomerID    string  `bson:"customerId" json:"customerId"`
	CustomerName  string  `bson:"customerName" json:"customerName"`
	CustomerPhone string  `bson:"customerPhone" json:"customerPhone"`
	ServiceType   string  `bson:"serviceType" json:"serviceType"`
	Problem       string  `bson:"problem" json:"problem"`
	Fee           float64 `bson:"fee,omitempty" json:"fee,omitempty"`

	// FCM token of the customer's device, denormalized at booking time so
	// the acceptance push needs no account-service lookup.
	CustomerFCMToken string `bson:"customerFcmToken,omitempty" json:"-"`

	Status     string `bson:"status" json:"status"`
	ProviderID string `bson:"providerId,omitempty" json:"providerId,omitempty"`

	// Denormalized provider display fields, written on claim.
	ProviderName   string  `bson:"providerName,omitempty" json:"providerName,omitempty"`
	ProviderPhone  string  `bson:"providerPhone,omitempty" json:"providerPhone,omitempty"`
	ProviderPhoto  string  `bson:"providerPhoto,omitempty" json:"providerPhoto,omitempty"`
	ProviderRating float64 `bson:"providerRating,omitempty" json:"providerRating,omitempty"`

	RejectionReason string `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`

	ScheduledAt *time.Time   `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	Address     *GeoAddress  `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// GeoAddress is a customer location attached to a consultation.
type GeoAddress struct {
	Line      string  `bson:"line,omitempty" json:"line,omitempty"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}
