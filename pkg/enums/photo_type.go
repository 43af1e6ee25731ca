package enums

import "fmt"

// PhotoType selects the photo list a batch is appended to.
type PhotoType string

const (
	PhotoTypeInterior PhotoType = "interior"
	PhotoTypeExterior PhotoType = "exterior"
)

var validPhotoTypes = []PhotoType{
	PhotoTypeInterior,
	PhotoTypeExterior,
}

// String implements fmt.Stringer.
func (p PhotoType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PhotoType.
func (p PhotoType) IsValid() bool {
	for _, candidate := range validPhotoTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePhotoType converts raw input into a PhotoType.
func ParsePhotoType(value string) (PhotoType, error) {
	for _, candidate := range validPhotoTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid photo type %q", value)
}
