package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	"github.com/clodamigoles/dossiers.vevo/pkg/pagination"
)

var (
	// ErrNotFound is returned by repositories when no record matches.
	ErrNotFound = errors.New("sale record not found")
	// ErrPaid is returned when a write would move a paid record out of paid.
	ErrPaid = errors.New("sale record already paid")
	// ErrPaymentReused is returned by MarkFeesPaid when the provider payment already settled another record.
	ErrPaymentReused = errors.New("payment already recorded on another sale record")
)

// Repository persists sale records. Create and Save refresh derived fields before writing.
// Save never touches the payment fields or photo upload time: payment is written by
// MarkFeesPaid only, photo lists and email history grow through the append methods.
// Save, CancelSale and ExpireOffer leave a paid record as it is.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	AppendPhotos(ctx context.Context, id uuid.UUID, photoType enums.PhotoType, urls []string, at time.Time) (*Record, error)
	MarkFeesPaid(ctx context.Context, id uuid.UUID, update PaymentUpdate) (bool, error)
	CancelSale(ctx context.Context, id uuid.UUID) error
	ExpireOffer(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	AppendEmailEvent(ctx context.Context, id uuid.UUID, event EmailEvent) error
	Search(ctx context.Context, query SearchQuery) ([]Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, *pagination.Cursor, error)
	ListStaleOffers(ctx context.Context, now time.Time, limit int) ([]Record, error)
	ListReminderCandidates(ctx context.Context, now time.Time, window time.Duration, limit int) ([]Record, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
	Ping(ctx context.Context) error
}

// PaymentUpdate is applied by MarkFeesPaid only while the record is completed and unpaid.
type PaymentUpdate struct {
	Amount    decimal.Decimal
	PaidAt    time.Time
	Method    enums.PaymentMethod
	PaymentID string
	Details   map[string]any
}

type SearchKind string

const (
	SearchByID    SearchKind = "id"
	SearchByEmail SearchKind = "email"
	SearchByPhone SearchKind = "phone"
)

// SearchQuery targets records that already carry an admin estimation.
type SearchQuery struct {
	Kind        SearchKind
	ID          uuid.UUID
	Email       string
	PhoneDigits string
	Limit       int
}

type ListFilter struct {
	SaleStatus enums.SaleStatus
	Status     enums.EstimationStatus
	Limit      int
	Cursor     *pagination.Cursor
}
