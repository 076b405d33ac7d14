package dispatch

import "servease/models"

// Transport owns a single logical connection to the dispatch server per
// active provider identity. Realtime dispatch is an enhancement: every
// failure here degrades to logging, never to a blocking error, and the
// polling endpoints keep the booking flow usable without it.
type Transport interface {
	// Connect binds the transport to the provider identity and starts the
	// channel. Idempotent for the same id; a different id tears down the
	// previous connection first. Silent no-op when the id or the endpoint
	// is unconfigured.
	Connect(providerID string)

	// Disconnect closes the connection, removes the read loop, and clears
	// the identity. Safe to call when not connected, and never interrupts
	// an in-flight claim (claims run against the store, not this channel).
	Disconnect()

	Status() Status
}

// Status is a snapshot of the transport state for the status endpoint.
type Status struct {
	Connected  bool   `json:"connected"`
	ProviderID string `json:"providerId,omitempty"`
	Attempts   int    `json:"reconnectAttempts"`
}

// OfferSink receives decoded offers from the read loop. Satisfied by the
// callback registry.
type OfferSink interface {
	Publish(models.Offer)
}

// Alert is the slice of the announcer the transport needs: sound first,
// so the audible alert is never delayed by UI callbacks.
type Alert interface {
	StartContinuousAlert()
}
