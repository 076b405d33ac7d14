package models

// Offer is an inbound candidate booking pushed to this provider over the
// dispatch channel. It exists only in memory: the transport decodes it,
// the announcer and registry consume it, and it is discarded once every
// subscriber has seen it.
type Offer struct {
	ConsultationID string      `json:"consultationId"`
	CustomerID     string      `json:"customerId"`
	CustomerName   string      `json:"customerName"`
	CustomerPhone  string      `json:"customerPhone"`
	ServiceType    string      `json:"serviceType"`
	Problem        string      `json:"problem"`
	ScheduledAt    string      `json:"scheduledAt,omitempty"`
	Fee            float64     `json:"fee,omitempty"`
	Address        *GeoAddress `json:"address,omitempty"`
}

// ProviderProfile carries the display fields denormalized onto a
// consultation when this provider claims it.
type ProviderProfile struct {
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	Photo  string  `json:"photo,omitempty"`
	Rating float64 `json:"rating,omitempty"`
}
