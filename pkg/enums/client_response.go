package enums

import "fmt"

// ClientResponse is the seller's answer to the admin estimation.
type ClientResponse string

const (
	ClientResponsePending  ClientResponse = "pending"
	ClientResponseAccepted ClientResponse = "accepted"
	ClientResponseDeclined ClientResponse = "declined"
)

var validClientResponses = []ClientResponse{
	ClientResponsePending,
	ClientResponseAccepted,
	ClientResponseDeclined,
}

// String implements fmt.Stringer.
func (c ClientResponse) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClientResponse.
func (c ClientResponse) IsValid() bool {
	for _, candidate := range validClientResponses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClientResponse converts raw input into a ClientResponse.
func ParseClientResponse(value string) (ClientResponse, error) {
	for _, candidate := range validClientResponses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client response %q", value)
}
