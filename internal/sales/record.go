package sales

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

const (
	// OfferValidity is how long an estimation stays open when the admin does not set validUntil.
	OfferValidity = 7 * 24 * time.Hour
	// DefaultDaysRemaining is reported while no estimation has been issued.
	DefaultDaysRemaining = 7

	saleInfoKey = "saleInfo"
)

// Record is one vehicle's journey from estimation request to paid sale.
type Record struct {
	ID                 uuid.UUID              `json:"id"`
	Vehicle            Vehicle                `json:"vehicle"`
	Email              string                 `json:"email"`
	Status             enums.EstimationStatus `json:"status"`
	SaleStatus         enums.SaleStatus       `json:"saleStatus"`
	AdminEstimation    *AdminEstimation       `json:"adminEstimation,omitempty"`
	IsExpired          bool                   `json:"isExpired"`
	DaysRemaining      int                    `json:"daysRemaining"`
	Photos             Photos                 `json:"vehiclePhotos"`
	Payment            Payment                `json:"payment"`
	AdditionalInfo     map[string]any         `json:"additionalInfo,omitempty"`
	ContactPhoneDigits string                 `json:"-"`
	EmailHistory       []EmailEvent           `json:"emailHistory"`
	Notes              string                 `json:"notes,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// Vehicle holds the intake form answers. The engine never reads them.
type Vehicle struct {
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Year             int    `json:"year"`
	BodyType         string `json:"bodyType,omitempty"`
	FuelType         string `json:"fuelType,omitempty"`
	Horsepower       int    `json:"horsepower,omitempty"`
	Transmission     string `json:"transmission,omitempty"`
	Doors            int    `json:"doors,omitempty"`
	Mileage          int    `json:"mileage,omitempty"`
	SellingTimeframe string `json:"sellingTimeframe,omitempty"`
	BuyerPreference  string `json:"buyerPreference,omitempty"`
}

// AdminEstimation is the offer issued by the back office.
type AdminEstimation struct {
	FinalPrice     decimal.Decimal      `json:"finalPrice"`
	Message        string               `json:"message,omitempty"`
	Conditions     string               `json:"conditions,omitempty"`
	SentAt         *time.Time           `json:"sentAt,omitempty"`
	ClientResponse enums.ClientResponse `json:"clientResponse"`
	ResponseAt     *time.Time           `json:"responseAt,omitempty"`
	ValidUntil     *time.Time           `json:"validUntil,omitempty"`
	ReminderSent   bool                 `json:"reminderSent"`
	ReminderSentAt *time.Time           `json:"reminderSentAt,omitempty"`
}

type Photos struct {
	Interior     []string           `json:"interior"`
	Exterior     []string           `json:"exterior"`
	UploadedAt   *time.Time         `json:"uploadedAt,omitempty"`
	ReviewedAt   *time.Time         `json:"reviewedAt,omitempty"`
	ReviewStatus enums.ReviewStatus `json:"reviewStatus"`
	ReviewNotes  string             `json:"reviewNotes,omitempty"`
}

type Payment struct {
	FeesPaid       bool                `json:"feesPaid"`
	FeesAmount     *decimal.Decimal    `json:"feesAmount,omitempty"`
	FeesPaidAt     *time.Time          `json:"feesPaidAt,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentID      string              `json:"paymentId,omitempty"`
	PaymentDetails map[string]any      `json:"paymentDetails,omitempty"`
}

// EmailEvent is one entry of the informational email audit trail.
type EmailEvent struct {
	Type         enums.EmailType `json:"type"`
	SentAt       time.Time       `json:"sentAt"`
	Subject      string          `json:"subject"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	MessageID    string          `json:"messageId,omitempty"`
}

// SaleInfo is the contact and address block captured when the seller starts the sale.
type SaleInfo struct {
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	FullName     string     `json:"fullName,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	AddressLine1 string     `json:"addressLine1,omitempty"`
	AddressLine2 string     `json:"addressLine2,omitempty"`
	PostalCode   string     `json:"postalCode,omitempty"`
	City         string     `json:"city,omitempty"`
	Country      string     `json:"country,omitempty"`
	AcceptedAt   *time.Time `json:"acceptedAt,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
}

// NewRecord returns a record in its initial states.
func NewRecord(email string) *Record {
	return &Record{
		ID:         uuid.New(),
		Email:      NormalizeEmail(email),
		Status:     enums.EstimationStatusStep1,
		SaleStatus: enums.SaleStatusNotStarted,
		Photos: Photos{
			Interior:     []string{},
			Exterior:     []string{},
			ReviewStatus: enums.ReviewStatusPending,
		},
		AdditionalInfo: map[string]any{},
		EmailHistory:   []EmailEvent{},
		DaysRemaining:  DefaultDaysRemaining,
	}
}

// Refresh recomputes the cached expiry fields and search keys. Stores call it on every write.
func (r *Record) Refresh(now time.Time) {
	r.IsExpired = false
	r.DaysRemaining = DefaultDaysRemaining

	if est := r.AdminEstimation; est != nil {
		if est.ClientResponse == "" {
			est.ClientResponse = enums.ClientResponsePending
		}
		if est.ValidUntil == nil && est.SentAt != nil {
			validUntil := est.SentAt.Add(OfferValidity)
			est.ValidUntil = &validUntil
		}
		if est.ValidUntil != nil {
			r.IsExpired = now.After(*est.ValidUntil)
			r.DaysRemaining = daysUntil(now, *est.ValidUntil)
			if r.IsExpired && r.Status == enums.EstimationStatusSent && est.ClientResponse == enums.ClientResponsePending {
				r.Status = enums.EstimationStatusExpired
			}
		}
	}

	if r.Photos.ReviewStatus == "" {
		r.Photos.ReviewStatus = enums.ReviewStatusPending
	}
	r.ContactPhoneDigits = r.phoneDigits()
}

func daysUntil(now, deadline time.Time) int {
	diff := deadline.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// ProcedureStarted reports whether the seller has entered the sale procedure.
func (r *Record) ProcedureStarted() bool {
	if r.Status == enums.EstimationStatusAccepted {
		return true
	}
	switch r.SaleStatus {
	case enums.SaleStatusInProgress,
		enums.SaleStatusPhotosUploaded,
		enums.SaleStatusUnderReview,
		enums.SaleStatusApproved,
		enums.SaleStatusCompleted,
		enums.SaleStatusPaid:
		return true
	}
	return false
}

// AcceptsPhotos reports whether photo uploads are currently allowed.
func (r *Record) AcceptsPhotos() bool {
	return r.Status == enums.EstimationStatusAccepted ||
		r.SaleStatus == enums.SaleStatusInProgress ||
		r.SaleStatus == enums.SaleStatusPhotosUploaded
}

// AlreadyStarted reports whether acceptance already happened.
func (r *Record) AlreadyStarted() bool {
	return r.Status == enums.EstimationStatusAccepted || r.SaleStatus == enums.SaleStatusInProgress
}

func (r *Record) PhotoCounts() (interior, exterior int) {
	return len(r.Photos.Interior), len(r.Photos.Exterior)
}

// SaleInfo decodes additionalInfo.saleInfo. Missing or malformed blocks yield a zero value.
func (r *Record) SaleInfo() SaleInfo {
	var info SaleInfo
	r.decodeInfo(saleInfoKey, &info)
	return info
}

// decodeInfo converts one additionalInfo block into dst regardless of the map type the store produced.
func (r *Record) decodeInfo(key string, dst any) bool {
	raw, ok := r.AdditionalInfo[key]
	if !ok || raw == nil {
		return false
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(buf, dst) == nil
}

// SetSaleInfo replaces additionalInfo.saleInfo.
func (r *Record) SetSaleInfo(info SaleInfo) {
	buf, err := json.Marshal(info)
	if err != nil {
		return
	}
	var encoded map[string]any
	if err := json.Unmarshal(buf, &encoded); err != nil {
		return
	}
	if r.AdditionalInfo == nil {
		r.AdditionalInfo = map[string]any{}
	}
	r.AdditionalInfo[saleInfoKey] = encoded
}

// DisplayName prefers the captured sale contact, falling back to the email local part.
func (r *Record) DisplayName() string {
	info := r.SaleInfo()
	switch {
	case info.FullName != "":
		return info.FullName
	case info.FirstName != "" || info.LastName != "":
		return strings.TrimSpace(info.FirstName + " " + info.LastName)
	}
	local, _, _ := strings.Cut(r.Email, "@")
	return local
}

func (r *Record) phoneDigits() string {
	if phone := r.SaleInfo().Phone; phone != "" {
		return Digits(phone)
	}
	var step3 struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if !r.decodeInfo("step3", &step3) {
		return ""
	}
	return Digits(step3.PhoneNumber)
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
