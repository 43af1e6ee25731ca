package enums

import "fmt"

// EstimationStatus is the progress of the estimation request itself.
type EstimationStatus string

const (
	EstimationStatusStep1     EstimationStatus = "step1"
	EstimationStatusStep2     EstimationStatus = "step2"
	EstimationStatusStep3     EstimationStatus = "step3"
	EstimationStatusPending   EstimationStatus = "pending"
	EstimationStatusAnalyzed  EstimationStatus = "analyzed"
	EstimationStatusSent      EstimationStatus = "sent"
	EstimationStatusAccepted  EstimationStatus = "accepted"
	EstimationStatusCompleted EstimationStatus = "completed"
	EstimationStatusExpired   EstimationStatus = "expired"
)

var validEstimationStatuses = []EstimationStatus{
	EstimationStatusStep1,
	EstimationStatusStep2,
	EstimationStatusStep3,
	EstimationStatusPending,
	EstimationStatusAnalyzed,
	EstimationStatusSent,
	EstimationStatusAccepted,
	EstimationStatusCompleted,
	EstimationStatusExpired,
}

// String implements fmt.Stringer.
func (e EstimationStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EstimationStatus.
func (e EstimationStatus) IsValid() bool {
	for _, candidate := range validEstimationStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEstimationStatus converts raw input into a EstimationStatus.
func ParseEstimationStatus(value string) (EstimationStatus, error) {
	for _, candidate := range validEstimationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid estimation status %q", value)
}
