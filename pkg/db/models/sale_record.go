package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

// SaleRecord is the row backing one estimation request and the sale procedure that follows it.
// The admin estimation is flattened into estimation_* columns guarded by has_estimation.
type SaleRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Brand            string `gorm:"column:brand;not null;default:''"`
	Model            string `gorm:"column:model;not null;default:''"`
	Year             int    `gorm:"column:year;not null;default:0"`
	BodyType         string `gorm:"column:body_type;not null;default:''"`
	FuelType         string `gorm:"column:fuel_type;not null;default:''"`
	Horsepower       int    `gorm:"column:horsepower;not null;default:0"`
	Transmission     string `gorm:"column:transmission;not null;default:''"`
	Doors            int    `gorm:"column:doors;not null;default:0"`
	Mileage          int    `gorm:"column:mileage;not null;default:0"`
	SellingTimeframe string `gorm:"column:selling_timeframe;not null;default:''"`
	BuyerPreference  string `gorm:"column:buyer_preference;not null;default:''"`

	Email              string                 `gorm:"column:email;not null;index"`
	Status             enums.EstimationStatus `gorm:"column:status;not null"`
	SaleStatus         enums.SaleStatus       `gorm:"column:sale_status;not null;index"`
	AdditionalInfo     map[string]any         `gorm:"column:additional_info;type:jsonb;serializer:json"`
	ContactPhoneDigits string                 `gorm:"column:contact_phone_digits;not null;default:'';index"`
	Notes              string                 `gorm:"column:notes;not null;default:''"`

	HasEstimation            bool                 `gorm:"column:has_estimation;not null;default:false"`
	EstimationFinalPrice     decimal.NullDecimal  `gorm:"column:estimation_final_price;type:numeric(12,2)"`
	EstimationMessage        string               `gorm:"column:estimation_message;not null;default:''"`
	EstimationConditions     string               `gorm:"column:estimation_conditions;not null;default:''"`
	EstimationSentAt         *time.Time           `gorm:"column:estimation_sent_at"`
	EstimationClientResponse enums.ClientResponse `gorm:"column:estimation_client_response;not null;default:''"`
	EstimationResponseAt     *time.Time           `gorm:"column:estimation_response_at"`
	EstimationValidUntil     *time.Time           `gorm:"column:estimation_valid_until;index"`
	EstimationReminderSent   bool                 `gorm:"column:estimation_reminder_sent;not null;default:false"`
	EstimationReminderSentAt *time.Time           `gorm:"column:estimation_reminder_sent_at"`
	IsExpired                bool                 `gorm:"column:is_expired;not null;default:false"`
	DaysRemaining            int                  `gorm:"column:days_remaining;not null"`

	PhotosUploadedAt   *time.Time         `gorm:"column:photos_uploaded_at"`
	PhotosReviewedAt   *time.Time         `gorm:"column:photos_reviewed_at"`
	PhotosReviewStatus enums.ReviewStatus `gorm:"column:photos_review_status;not null"`
	PhotosReviewNotes  string             `gorm:"column:photos_review_notes;not null;default:''"`

	FeesPaid       bool                `gorm:"column:fees_paid;not null;default:false"`
	FeesAmount     decimal.NullDecimal `gorm:"column:fees_amount;type:numeric(12,2)"`
	FeesPaidAt     *time.Time          `gorm:"column:fees_paid_at"`
	PaymentMethod  string              `gorm:"column:payment_method;not null;default:''"`
	PaymentID      string              `gorm:"column:payment_id;not null;default:'';uniqueIndex:idx_sale_records_payment_id,where:payment_id <> ''"`
	PaymentDetails map[string]any      `gorm:"column:payment_details;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
