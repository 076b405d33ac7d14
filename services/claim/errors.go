package claim

import "fmt"

// AlreadyClaimedError means another provider won the race for this
// consultation. Expected under concurrent offers; callers inform the user
// the offer is gone and must not retry.
type AlreadyClaimedError struct {
	ConsultationID string
	ProviderID     string
}

func (e AlreadyClaimedError) Error() string {
	return fmt.Sprintf("consultation %s already claimed by provider %s", e.ConsultationID, e.ProviderID)
}

// NotClaimableError means the consultation left the pending state through
// some path other than a competing claim (rejected, cancelled, completed).
type NotClaimableError struct {
	ConsultationID string
	Status         string
}

func (e NotClaimableError) Error() string {
	return fmt.Sprintf("consultation %s is not claimable in status %q", e.ConsultationID, e.Status)
}

// ValidationError is raised synchronously, before any network call.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
