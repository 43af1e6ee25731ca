package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clodamigoles/dossiers.vevo/internal/repo"
	"github.com/clodamigoles/dossiers.vevo/pkg/db"
	"github.com/clodamigoles/dossiers.vevo/pkg/db/models"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	"github.com/clodamigoles/dossiers.vevo/pkg/pagination"
)

// scalarColumns are the sale_records columns rewritten by Save. Payment columns
// belong to MarkFeesPaid and photos_uploaded_at to AppendPhotos.
var scalarColumns = []string{
	"email", "status", "sale_status", "additional_info", "contact_phone_digits", "notes",
	"has_estimation", "estimation_final_price", "estimation_message", "estimation_conditions",
	"estimation_sent_at", "estimation_client_response", "estimation_response_at",
	"estimation_valid_until", "estimation_reminder_sent", "estimation_reminder_sent_at",
	"is_expired", "days_remaining",
	"photos_reviewed_at", "photos_review_status", "photos_review_notes",
	"updated_at",
}

type gormRepository struct {
	repo.Base
	now func() time.Time
}

// NewGormRepository stores records in sale_records, sale_photos and email_events.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db), now: func() time.Time { return time.Now().UTC() }}
}

func (r *gormRepository) Create(ctx context.Context, rec *Record) error {
	now := r.now()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Refresh(now)

	row := toModel(rec)
	return r.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		photos := photoRows(rec.ID, enums.PhotoTypeInterior, rec.Photos.Interior, now)
		photos = append(photos, photoRows(rec.ID, enums.PhotoTypeExterior, rec.Photos.Exterior, now)...)
		if len(photos) > 0 {
			if err := tx.Create(&photos).Error; err != nil {
				return err
			}
		}
		for _, event := range rec.EmailHistory {
			ev := toEventModel(rec.ID, event)
			if err := tx.Create(&ev).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var row models.SaleRecord
	err := r.DB(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	records, err := r.hydrate(ctx, []models.SaleRecord{row})
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

func (r *gormRepository) Save(ctx context.Context, rec *Record) error {
	now := r.now()
	rec.UpdatedAt = now
	rec.Refresh(now)

	row := toModel(rec)
	q := r.DB(ctx).Model(&models.SaleRecord{}).Where("id = ?", rec.ID)
	if rec.SaleStatus != enums.SaleStatusPaid {
		q = q.Where("fees_paid = ?", false)
	}
	result := q.Select(scalarColumns).Updates(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missed(ctx, rec.ID)
	}
	return nil
}

func (r *gormRepository) CancelSale(ctx context.Context, id uuid.UUID) error {
	result := r.DB(ctx).
		Model(&models.SaleRecord{}).
		Where("id = ? AND fees_paid = ? AND sale_status <> ?", id, false, enums.SaleStatusPaid).
		Updates(map[string]any{"sale_status": enums.SaleStatusCancelled, "updated_at": r.now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missed(ctx, id)
	}
	return nil
}

// ExpireOffer flips a pending offer past its deadline to expired. It reports false
// when the seller answered, or the record otherwise left the pending state, first.
func (r *gormRepository) ExpireOffer(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.pendingOffers(ctx).
		Where("id = ? AND estimation_valid_until < ?", id, now).
		Updates(map[string]any{
			"status":         enums.EstimationStatusExpired,
			"is_expired":     true,
			"days_remaining": 0,
			"updated_at":     r.now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// missed explains a conditional write that matched no row.
func (r *gormRepository) missed(ctx context.Context, id uuid.UUID) error {
	var row models.SaleRecord
	err := r.DB(ctx).Select("id", "fees_paid").Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if row.FeesPaid {
		return ErrPaid
	}
	return nil
}

func (r *gormRepository) AppendPhotos(ctx context.Context, id uuid.UUID, photoType enums.PhotoType, urls []string, at time.Time) (*Record, error) {
	err := r.InTx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.SaleRecord{}).
			Where("id = ?", id).
			Updates(map[string]any{"photos_uploaded_at": at, "updated_at": r.now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		rows := photoRows(id, photoType, urls, at)
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) MarkFeesPaid(ctx context.Context, id uuid.UUID, update PaymentUpdate) (bool, error) {
	paidAt := update.PaidAt
	row := models.SaleRecord{
		SaleStatus:     enums.SaleStatusPaid,
		FeesPaid:       true,
		FeesAmount:     decimal.NewNullDecimal(update.Amount),
		FeesPaidAt:     &paidAt,
		PaymentMethod:  update.Method.String(),
		PaymentID:      update.PaymentID,
		PaymentDetails: update.Details,
		UpdatedAt:      r.now(),
	}
	result := r.DB(ctx).
		Model(&models.SaleRecord{}).
		Where("id = ? AND sale_status = ? AND fees_paid = ?", id, enums.SaleStatusCompleted, false).
		Select("sale_status", "fees_paid", "fees_amount", "fees_paid_at", "payment_method", "payment_id", "payment_details", "updated_at").
		Updates(&row)
	// payment_id carries the only unique index this update can hit.
	if db.IsUniqueViolation(result.Error, "") {
		return false, ErrPaymentReused
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) AppendEmailEvent(ctx context.Context, id uuid.UUID, event EmailEvent) error {
	var count int64
	if err := r.DB(ctx).Model(&models.SaleRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	row := toEventModel(id, event)
	return r.DB(ctx).Create(&row).Error
}

func (r *gormRepository) Search(ctx context.Context, query SearchQuery) ([]Record, error) {
	q := r.DB(ctx).Model(&models.SaleRecord{}).Where("has_estimation = ?", true)
	switch query.Kind {
	case SearchByID:
		q = q.Where("id = ?", query.ID)
	case SearchByEmail:
		q = q.Where("lower(email) = ?", NormalizeEmail(query.Email))
	case SearchByPhone:
		q = q.Where("contact_phone_digits = ?", query.PhoneDigits)
	default:
		return []Record{}, nil
	}

	var rows []models.SaleRecord
	if err := q.Order("created_at DESC, id DESC").Limit(searchLimit(query.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]Record, *pagination.Cursor, error) {
	q := r.DB(ctx).Model(&models.SaleRecord{})
	if filter.SaleStatus != "" {
		q = q.Where("sale_status = ?", filter.SaleStatus)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var rows []models.SaleRecord
	if err := q.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	rows, next := pagination.Trim(rows, filter.Limit, func(row models.SaleRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	records, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, nil, err
	}
	return records, next, nil
}

func (r *gormRepository) ListStaleOffers(ctx context.Context, now time.Time, limit int) ([]Record, error) {
	var rows []models.SaleRecord
	err := r.pendingOffers(ctx).
		Where("estimation_valid_until < ?", now).
		Order("estimation_valid_until ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

func (r *gormRepository) ListReminderCandidates(ctx context.Context, now time.Time, window time.Duration, limit int) ([]Record, error) {
	var rows []models.SaleRecord
	err := r.pendingOffers(ctx).
		Where("estimation_reminder_sent = ?", false).
		Where("estimation_valid_until > ? AND estimation_valid_until <= ?", now, now.Add(window)).
		Order("estimation_valid_until ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

func (r *gormRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.DB(ctx).
		Model(&models.SaleRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"estimation_reminder_sent":    true,
			"estimation_reminder_sent_at": at,
			"updated_at":                  r.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) pendingOffers(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Model(&models.SaleRecord{}).
		Where("status = ? AND has_estimation = ? AND estimation_client_response = ?",
			enums.EstimationStatusSent, true, enums.ClientResponsePending)
}

// hydrate loads the photo and email history rows for a page of records in two queries.
func (r *gormRepository) hydrate(ctx context.Context, rows []models.SaleRecord) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	if len(rows) == 0 {
		return records, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var photos []models.SalePhoto
	if err := r.DB(ctx).Where("sale_record_id IN ?", ids).Order("id ASC").Find(&photos).Error; err != nil {
		return nil, err
	}
	var events []models.EmailEvent
	if err := r.DB(ctx).Where("sale_record_id IN ?", ids).Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}

	photosByRecord := make(map[uuid.UUID][]models.SalePhoto, len(rows))
	for _, p := range photos {
		photosByRecord[p.SaleRecordID] = append(photosByRecord[p.SaleRecordID], p)
	}
	eventsByRecord := make(map[uuid.UUID][]models.EmailEvent, len(rows))
	for _, e := range events {
		eventsByRecord[e.SaleRecordID] = append(eventsByRecord[e.SaleRecordID], e)
	}

	now := r.now()
	for _, row := range rows {
		rec := fromModel(row, photosByRecord[row.ID], eventsByRecord[row.ID])
		rec.Refresh(now)
		records = append(records, *rec)
	}
	return records, nil
}

func searchLimit(limit int) int {
	if limit <= 0 || limit > MaxSearchResults {
		return MaxSearchResults
	}
	return limit
}

func photoRows(id uuid.UUID, photoType enums.PhotoType, urls []string, at time.Time) []models.SalePhoto {
	rows := make([]models.SalePhoto, 0, len(urls))
	for _, url := range urls {
		rows = append(rows, models.SalePhoto{SaleRecordID: id, PhotoType: photoType, URL: url, CreatedAt: at})
	}
	return rows
}

func toEventModel(id uuid.UUID, e EmailEvent) models.EmailEvent {
	return models.EmailEvent{
		SaleRecordID: id,
		Type:         e.Type,
		SentAt:       e.SentAt,
		Subject:      e.Subject,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
		MessageID:    e.MessageID,
	}
}

func toModel(rec *Record) models.SaleRecord {
	row := models.SaleRecord{
		ID:                 rec.ID,
		Brand:              rec.Vehicle.Brand,
		Model:              rec.Vehicle.Model,
		Year:               rec.Vehicle.Year,
		BodyType:           rec.Vehicle.BodyType,
		FuelType:           rec.Vehicle.FuelType,
		Horsepower:         rec.Vehicle.Horsepower,
		Transmission:       rec.Vehicle.Transmission,
		Doors:              rec.Vehicle.Doors,
		Mileage:            rec.Vehicle.Mileage,
		SellingTimeframe:   rec.Vehicle.SellingTimeframe,
		BuyerPreference:    rec.Vehicle.BuyerPreference,
		Email:              rec.Email,
		Status:             rec.Status,
		SaleStatus:         rec.SaleStatus,
		AdditionalInfo:     rec.AdditionalInfo,
		ContactPhoneDigits: rec.ContactPhoneDigits,
		Notes:              rec.Notes,
		IsExpired:          rec.IsExpired,
		DaysRemaining:      rec.DaysRemaining,
		PhotosUploadedAt:   rec.Photos.UploadedAt,
		PhotosReviewedAt:   rec.Photos.ReviewedAt,
		PhotosReviewStatus: rec.Photos.ReviewStatus,
		PhotosReviewNotes:  rec.Photos.ReviewNotes,
		FeesPaid:           rec.Payment.FeesPaid,
		FeesPaidAt:         rec.Payment.FeesPaidAt,
		PaymentMethod:      rec.Payment.PaymentMethod.String(),
		PaymentID:          rec.Payment.PaymentID,
		PaymentDetails:     rec.Payment.PaymentDetails,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.Payment.FeesAmount != nil {
		row.FeesAmount = decimal.NewNullDecimal(*rec.Payment.FeesAmount)
	}
	if est := rec.AdminEstimation; est != nil {
		row.HasEstimation = true
		row.EstimationFinalPrice = decimal.NewNullDecimal(est.FinalPrice)
		row.EstimationMessage = est.Message
		row.EstimationConditions = est.Conditions
		row.EstimationSentAt = est.SentAt
		row.EstimationClientResponse = est.ClientResponse
		row.EstimationResponseAt = est.ResponseAt
		row.EstimationValidUntil = est.ValidUntil
		row.EstimationReminderSent = est.ReminderSent
		row.EstimationReminderSentAt = est.ReminderSentAt
	}
	return row
}

func fromModel(row models.SaleRecord, photos []models.SalePhoto, events []models.EmailEvent) *Record {
	rec := &Record{
		ID: row.ID,
		Vehicle: Vehicle{
			Brand:            row.Brand,
			Model:            row.Model,
			Year:             row.Year,
			BodyType:         row.BodyType,
			FuelType:         row.FuelType,
			Horsepower:       row.Horsepower,
			Transmission:     row.Transmission,
			Doors:            row.Doors,
			Mileage:          row.Mileage,
			SellingTimeframe: row.SellingTimeframe,
			BuyerPreference:  row.BuyerPreference,
		},
		Email:              row.Email,
		Status:             row.Status,
		SaleStatus:         row.SaleStatus,
		IsExpired:          row.IsExpired,
		DaysRemaining:      row.DaysRemaining,
		AdditionalInfo:     row.AdditionalInfo,
		ContactPhoneDigits: row.ContactPhoneDigits,
		Notes:              row.Notes,
		Photos: Photos{
			Interior:     []string{},
			Exterior:     []string{},
			UploadedAt:   row.PhotosUploadedAt,
			ReviewedAt:   row.PhotosReviewedAt,
			ReviewStatus: row.PhotosReviewStatus,
			ReviewNotes:  row.PhotosReviewNotes,
		},
		Payment: Payment{
			FeesPaid:       row.FeesPaid,
			FeesPaidAt:     row.FeesPaidAt,
			PaymentMethod:  enums.PaymentMethod(row.PaymentMethod),
			PaymentID:      row.PaymentID,
			PaymentDetails: row.PaymentDetails,
		},
		EmailHistory: make([]EmailEvent, 0, len(events)),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if rec.AdditionalInfo == nil {
		rec.AdditionalInfo = map[string]any{}
	}
	if row.FeesAmount.Valid {
		amount := row.FeesAmount.Decimal
		rec.Payment.FeesAmount = &amount
	}
	if row.HasEstimation {
		rec.AdminEstimation = &AdminEstimation{
			FinalPrice:     row.EstimationFinalPrice.Decimal,
			Message:        row.EstimationMessage,
			Conditions:     row.EstimationConditions,
			SentAt:         row.EstimationSentAt,
			ClientResponse: row.EstimationClientResponse,
			ResponseAt:     row.EstimationResponseAt,
			ValidUntil:     row.EstimationValidUntil,
			ReminderSent:   row.EstimationReminderSent,
			ReminderSentAt: row.EstimationReminderSentAt,
		}
	}
	for _, p := range photos {
		switch p.PhotoType {
		case enums.PhotoTypeInterior:
			rec.Photos.Interior = append(rec.Photos.Interior, p.URL)
		case enums.PhotoTypeExterior:
			rec.Photos.Exterior = append(rec.Photos.Exterior, p.URL)
		}
	}
	for _, e := range events {
		rec.EmailHistory = append(rec.EmailHistory, EmailEvent{
			Type:         e.Type,
			SentAt:       e.SentAt,
			Subject:      e.Subject,
			Success:      e.Success,
			ErrorMessage: e.ErrorMessage,
			MessageID:    e.MessageID,
		})
	}
	return rec
}
