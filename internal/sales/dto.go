package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

const (
	// MaxSearchResults caps admin search responses.
	MaxSearchResults = 20
	defaultCountry   = "France"
)

// Outcome tells the caller whether an acceptance call changed the record.
type Outcome string

const (
	OutcomeAccepted       Outcome = "accepted"
	OutcomeAlreadyStarted Outcome = "already_started"
)

type AcceptInput struct {
	FirstName string
	LastName  string
	Phone     string
}

type StartSaleInput struct {
	FullName     string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	PostalCode   string
	City         string
	Country      string
}

// AcceptResult carries the record and, when the sale was already underway,
// the auth page the seller should be sent to instead.
type AcceptResult struct {
	Outcome    Outcome
	RedirectTo string
	Record     *Record
}

type CreateInput struct {
	Email          string
	Vehicle        Vehicle
	Status         enums.EstimationStatus
	AdditionalInfo map[string]any
	Notes          string
}

type EstimationInput struct {
	FinalPrice decimal.Decimal
	Message    string
	Conditions string
	ValidUntil *time.Time
}

type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
)

type ReviewInput struct {
	Decision ReviewDecision
	Notes    string
}

type ListParams struct {
	SaleStatus enums.SaleStatus
	Status     enums.EstimationStatus
	Limit      int
	Cursor     string
}

type ListResult struct {
	Items  []Record `json:"items"`
	Cursor string   `json:"cursor"`
}

// StateTransition is attached to STATE_CONFLICT errors.
type StateTransition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PhotoCounts is attached to INCOMPLETE_PHOTOS errors.
type PhotoCounts struct {
	InteriorCount int `json:"interiorCount"`
	ExteriorCount int `json:"exteriorCount"`
}
