package enums

import "fmt"

// EmailType classifies entries of a record's email history.
type EmailType string

const (
	EmailTypeEstimation EmailType = "estimation"
	EmailTypeReminder   EmailType = "reminder"
	EmailTypeSaleUpdate EmailType = "sale_update"
	EmailTypeCustom     EmailType = "custom"
)

var validEmailTypes = []EmailType{
	EmailTypeEstimation,
	EmailTypeReminder,
	EmailTypeSaleUpdate,
	EmailTypeCustom,
}

// String implements fmt.Stringer.
func (e EmailType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EmailType.
func (e EmailType) IsValid() bool {
	for _, candidate := range validEmailTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmailType converts raw input into a EmailType.
func ParseEmailType(value string) (EmailType, error) {
	for _, candidate := range validEmailTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email type %q", value)
}
