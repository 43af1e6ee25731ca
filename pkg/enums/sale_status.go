package enums

import "fmt"

// SaleStatus tracks the seller procedure once an estimation is accepted.
type SaleStatus string

const (
	SaleStatusNotStarted     SaleStatus = "not_started"
	SaleStatusInProgress     SaleStatus = "in_progress"
	SaleStatusPhotosUploaded SaleStatus = "photos_uploaded"
	SaleStatusUnderReview    SaleStatus = "under_review"
	SaleStatusApproved       SaleStatus = "approved"
	SaleStatusCompleted      SaleStatus = "completed"
	SaleStatusPaid           SaleStatus = "paid"
	SaleStatusCancelled      SaleStatus = "cancelled"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusNotStarted,
	SaleStatusInProgress,
	SaleStatusPhotosUploaded,
	SaleStatusUnderReview,
	SaleStatusApproved,
	SaleStatusCompleted,
	SaleStatusPaid,
	SaleStatusCancelled,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleStatus converts raw input into a SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
