package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	"github.com/clodamigoles/dossiers.vevo/pkg/pagination"
)

const recordsCollection = "sale_records"

type mongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRepository stores each record as one document; photos and email history are embedded arrays.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		coll: db.Collection(recordsCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureRecordIndexes creates the lookup indexes used by search, listing and the cron jobs.
func EnsureRecordIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(recordsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "saleStatus", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "contactPhoneDigits", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "adminEstimation.validUntil", Value: 1}}},
		{
			Keys: bson.D{{Key: "payment.paymentId", Value: 1}},
			Options: options.Index().
				SetName("payment_id_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"payment.paymentId": bson.M{"$type": "string"}}),
		},
	})
	return err
}

type recordDocument struct {
	ID                 string              `bson:"_id"`
	Vehicle            vehicleDocument     `bson:"vehicle"`
	Email              string              `bson:"email"`
	Status             string              `bson:"status"`
	SaleStatus         string              `bson:"saleStatus"`
	AdminEstimation    *estimationDocument `bson:"adminEstimation,omitempty"`
	IsExpired          bool                `bson:"isExpired"`
	DaysRemaining      int                 `bson:"daysRemaining"`
	Photos             photosDocument      `bson:"vehiclePhotos"`
	Payment            paymentDocument     `bson:"payment"`
	AdditionalInfo     bson.M              `bson:"additionalInfo,omitempty"`
	ContactPhoneDigits string              `bson:"contactPhoneDigits"`
	EmailHistory       []emailDocument     `bson:"emailHistory"`
	Notes              string              `bson:"notes,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt"`
}

type vehicleDocument struct {
	Brand            string `bson:"brand"`
	Model            string `bson:"model"`
	Year             int    `bson:"year"`
	BodyType         string `bson:"bodyType,omitempty"`
	FuelType         string `bson:"fuelType,omitempty"`
	Horsepower       int    `bson:"horsepower,omitempty"`
	Transmission     string `bson:"transmission,omitempty"`
	Doors            int    `bson:"doors,omitempty"`
	Mileage          int    `bson:"mileage,omitempty"`
	SellingTimeframe string `bson:"sellingTimeframe,omitempty"`
	BuyerPreference  string `bson:"buyerPreference,omitempty"`
}

type estimationDocument struct {
	FinalPrice     primitive.Decimal128 `bson:"finalPrice"`
	Message        string               `bson:"message,omitempty"`
	Conditions     string               `bson:"conditions,omitempty"`
	SentAt         *time.Time           `bson:"sentAt,omitempty"`
	ClientResponse string               `bson:"clientResponse"`
	ResponseAt     *time.Time           `bson:"responseAt,omitempty"`
	ValidUntil     *time.Time           `bson:"validUntil,omitempty"`
	ReminderSent   bool                 `bson:"reminderSent"`
	ReminderSentAt *time.Time           `bson:"reminderSentAt,omitempty"`
}

type photosDocument struct {
	Interior     []string   `bson:"interior"`
	Exterior     []string   `bson:"exterior"`
	UploadedAt   *time.Time `bson:"uploadedAt,omitempty"`
	ReviewedAt   *time.Time `bson:"reviewedAt,omitempty"`
	ReviewStatus string     `bson:"reviewStatus"`
	ReviewNotes  string     `bson:"reviewNotes,omitempty"`
}

type paymentDocument struct {
	FeesPaid       bool                  `bson:"feesPaid"`
	FeesAmount     *primitive.Decimal128 `bson:"feesAmount,omitempty"`
	FeesPaidAt     *time.Time            `bson:"feesPaidAt,omitempty"`
	PaymentMethod  string                `bson:"paymentMethod,omitempty"`
	PaymentID      string                `bson:"paymentId,omitempty"`
	PaymentDetails bson.M                `bson:"paymentDetails,omitempty"`
}

type emailDocument struct {
	Type         string    `bson:"type"`
	SentAt       time.Time `bson:"sentAt"`
	Subject      string    `bson:"subject"`
	Success      bool      `bson:"success"`
	ErrorMessage string    `bson:"errorMessage,omitempty"`
	MessageID    string    `bson:"messageId,omitempty"`
}

func (r *mongoRepository) Create(ctx context.Context, rec *Record) error {
	now := r.now()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Refresh(now)

	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, doc)
	return err
}

func (r *mongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var doc recordDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.fromDocument(doc)
}

func (r *mongoRepository) Save(ctx context.Context, rec *Record) error {
	now := r.now()
	rec.UpdatedAt = now
	rec.Refresh(now)

	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	set := bson.M{
		"email":                      doc.Email,
		"status":                     doc.Status,
		"saleStatus":                 doc.SaleStatus,
		"isExpired":                  doc.IsExpired,
		"daysRemaining":              doc.DaysRemaining,
		"additionalInfo":             doc.AdditionalInfo,
		"contactPhoneDigits":         doc.ContactPhoneDigits,
		"notes":                      doc.Notes,
		"vehiclePhotos.reviewedAt":   doc.Photos.ReviewedAt,
		"vehiclePhotos.reviewStatus": doc.Photos.ReviewStatus,
		"vehiclePhotos.reviewNotes":  doc.Photos.ReviewNotes,
		"updatedAt":                  doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.AdminEstimation != nil {
		set["adminEstimation"] = doc.AdminEstimation
	} else {
		update["$unset"] = bson.M{"adminEstimation": ""}
	}

	filter := bson.M{"_id": doc.ID}
	if rec.SaleStatus != enums.SaleStatusPaid {
		filter["payment.feesPaid"] = bson.M{"$ne": true}
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missed(ctx, rec.ID)
	}
	return nil
}

func (r *mongoRepository) CancelSale(ctx context.Context, id uuid.UUID) error {
	filter := bson.M{
		"_id":              id.String(),
		"saleStatus":       bson.M{"$ne": enums.SaleStatusPaid.String()},
		"payment.feesPaid": bson.M{"$ne": true},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"saleStatus": enums.SaleStatusCancelled.String(),
		"updatedAt":  r.now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missed(ctx, id)
	}
	return nil
}

func (r *mongoRepository) ExpireOffer(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	filter := pendingOfferFilter()
	filter["_id"] = id.String()
	filter["adminEstimation.validUntil"] = bson.M{"$lt": now}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":        enums.EstimationStatusExpired.String(),
		"isExpired":     true,
		"daysRemaining": 0,
		"updatedAt":     r.now(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoRepository) missed(ctx context.Context, id uuid.UUID) error {
	var doc struct {
		Payment paymentDocument `bson:"payment"`
	}
	opts := options.FindOne().SetProjection(bson.M{"payment.feesPaid": 1})
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if doc.Payment.FeesPaid {
		return ErrPaid
	}
	return nil
}

func (r *mongoRepository) AppendPhotos(ctx context.Context, id uuid.UUID, photoType enums.PhotoType, urls []string, at time.Time) (*Record, error) {
	field := "vehiclePhotos." + photoType.String()
	update := bson.M{
		"$push": bson.M{field: bson.M{"$each": urls}},
		"$set":  bson.M{"vehiclePhotos.uploadedAt": at, "updatedAt": r.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc recordDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.fromDocument(doc)
}

func (r *mongoRepository) MarkFeesPaid(ctx context.Context, id uuid.UUID, update PaymentUpdate) (bool, error) {
	amount, err := primitive.ParseDecimal128(update.Amount.String())
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"_id":              id.String(),
		"saleStatus":       enums.SaleStatusCompleted.String(),
		"payment.feesPaid": false,
	}
	set := bson.M{"$set": bson.M{
		"saleStatus":             enums.SaleStatusPaid.String(),
		"payment.feesPaid":       true,
		"payment.feesAmount":     amount,
		"payment.feesPaidAt":     update.PaidAt,
		"payment.paymentMethod":  update.Method.String(),
		"payment.paymentId":      update.PaymentID,
		"payment.paymentDetails": update.Details,
		"updatedAt":              r.now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, set)
	if mongo.IsDuplicateKeyError(err) {
		return false, ErrPaymentReused
	}
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoRepository) AppendEmailEvent(ctx context.Context, id uuid.UUID, event EmailEvent) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{
		"$push": bson.M{"emailHistory": toEmailDocument(event)},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) Search(ctx context.Context, query SearchQuery) ([]Record, error) {
	filter := bson.M{"adminEstimation": bson.M{"$exists": true}}
	switch query.Kind {
	case SearchByID:
		filter["_id"] = query.ID.String()
	case SearchByEmail:
		filter["email"] = NormalizeEmail(query.Email)
	case SearchByPhone:
		filter["contactPhoneDigits"] = query.PhoneDigits
	default:
		return []Record{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(searchLimit(query.Limit)))
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) List(ctx context.Context, filter ListFilter) ([]Record, *pagination.Cursor, error) {
	query := bson.M{}
	if filter.SaleStatus != "" {
		query["saleStatus"] = filter.SaleStatus.String()
	}
	if filter.Status != "" {
		query["status"] = filter.Status.String()
	}
	if c := filter.Cursor; c != nil {
		query["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": c.CreatedAt}},
			bson.M{"createdAt": c.CreatedAt, "_id": bson.M{"$lt": c.ID.String()}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(pagination.LimitWithBuffer(filter.Limit)))

	records, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, nil, err
	}
	records, next := pagination.Trim(records, filter.Limit, func(rec Record) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rec.CreatedAt, ID: rec.ID}
	})
	return records, next, nil
}

func (r *mongoRepository) ListStaleOffers(ctx context.Context, now time.Time, limit int) ([]Record, error) {
	filter := pendingOfferFilter()
	filter["adminEstimation.validUntil"] = bson.M{"$lt": now}
	opts := options.Find().SetSort(bson.D{{Key: "adminEstimation.validUntil", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) ListReminderCandidates(ctx context.Context, now time.Time, window time.Duration, limit int) ([]Record, error) {
	filter := pendingOfferFilter()
	filter["adminEstimation.reminderSent"] = false
	filter["adminEstimation.validUntil"] = bson.M{"$gt": now, "$lte": now.Add(window)}
	opts := options.Find().SetSort(bson.D{{Key: "adminEstimation.validUntil", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String(), "adminEstimation": bson.M{"$exists": true}}, bson.M{
		"$set": bson.M{
			"adminEstimation.reminderSent":   true,
			"adminEstimation.reminderSentAt": at,
			"updatedAt":                      r.now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func pendingOfferFilter() bson.M {
	return bson.M{
		"status":                         enums.EstimationStatusSent.String(),
		"adminEstimation.clientResponse": enums.ClientResponsePending.String(),
	}
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Record, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []recordDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := r.fromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func toDocument(rec *Record) (recordDocument, error) {
	doc := recordDocument{
		ID: rec.ID.String(),
		Vehicle: vehicleDocument{
			Brand:            rec.Vehicle.Brand,
			Model:            rec.Vehicle.Model,
			Year:             rec.Vehicle.Year,
			BodyType:         rec.Vehicle.BodyType,
			FuelType:         rec.Vehicle.FuelType,
			Horsepower:       rec.Vehicle.Horsepower,
			Transmission:     rec.Vehicle.Transmission,
			Doors:            rec.Vehicle.Doors,
			Mileage:          rec.Vehicle.Mileage,
			SellingTimeframe: rec.Vehicle.SellingTimeframe,
			BuyerPreference:  rec.Vehicle.BuyerPreference,
		},
		Email:          rec.Email,
		Status:         rec.Status.String(),
		SaleStatus:     rec.SaleStatus.String(),
		IsExpired:      rec.IsExpired,
		DaysRemaining:  rec.DaysRemaining,
		AdditionalInfo: rec.AdditionalInfo,
		Photos: photosDocument{
			Interior:     nonNil(rec.Photos.Interior),
			Exterior:     nonNil(rec.Photos.Exterior),
			UploadedAt:   rec.Photos.UploadedAt,
			ReviewedAt:   rec.Photos.ReviewedAt,
			ReviewStatus: rec.Photos.ReviewStatus.String(),
			ReviewNotes:  rec.Photos.ReviewNotes,
		},
		Payment: paymentDocument{
			FeesPaid:       rec.Payment.FeesPaid,
			FeesPaidAt:     rec.Payment.FeesPaidAt,
			PaymentMethod:  rec.Payment.PaymentMethod.String(),
			PaymentID:      rec.Payment.PaymentID,
			PaymentDetails: rec.Payment.PaymentDetails,
		},
		ContactPhoneDigits: rec.ContactPhoneDigits,
		EmailHistory:       make([]emailDocument, 0, len(rec.EmailHistory)),
		Notes:              rec.Notes,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.Payment.FeesAmount != nil {
		amount, err := primitive.ParseDecimal128(rec.Payment.FeesAmount.String())
		if err != nil {
			return doc, err
		}
		doc.Payment.FeesAmount = &amount
	}
	if est := rec.AdminEstimation; est != nil {
		price, err := primitive.ParseDecimal128(est.FinalPrice.String())
		if err != nil {
			return doc, err
		}
		doc.AdminEstimation = &estimationDocument{
			FinalPrice:     price,
			Message:        est.Message,
			Conditions:     est.Conditions,
			SentAt:         est.SentAt,
			ClientResponse: est.ClientResponse.String(),
			ResponseAt:     est.ResponseAt,
			ValidUntil:     est.ValidUntil,
			ReminderSent:   est.ReminderSent,
			ReminderSentAt: est.ReminderSentAt,
		}
	}
	for _, e := range rec.EmailHistory {
		doc.EmailHistory = append(doc.EmailHistory, toEmailDocument(e))
	}
	return doc, nil
}

func (r *mongoRepository) fromDocument(doc recordDocument) (*Record, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		ID: id,
		Vehicle: Vehicle{
			Brand:            doc.Vehicle.Brand,
			Model:            doc.Vehicle.Model,
			Year:             doc.Vehicle.Year,
			BodyType:         doc.Vehicle.BodyType,
			FuelType:         doc.Vehicle.FuelType,
			Horsepower:       doc.Vehicle.Horsepower,
			Transmission:     doc.Vehicle.Transmission,
			Doors:            doc.Vehicle.Doors,
			Mileage:          doc.Vehicle.Mileage,
			SellingTimeframe: doc.Vehicle.SellingTimeframe,
			BuyerPreference:  doc.Vehicle.BuyerPreference,
		},
		Email:              doc.Email,
		Status:             enums.EstimationStatus(doc.Status),
		SaleStatus:         enums.SaleStatus(doc.SaleStatus),
		IsExpired:          doc.IsExpired,
		DaysRemaining:      doc.DaysRemaining,
		AdditionalInfo:     map[string]any(doc.AdditionalInfo),
		ContactPhoneDigits: doc.ContactPhoneDigits,
		Notes:              doc.Notes,
		Photos: Photos{
			Interior:     nonNil(doc.Photos.Interior),
			Exterior:     nonNil(doc.Photos.Exterior),
			UploadedAt:   doc.Photos.UploadedAt,
			ReviewedAt:   doc.Photos.ReviewedAt,
			ReviewStatus: enums.ReviewStatus(doc.Photos.ReviewStatus),
			ReviewNotes:  doc.Photos.ReviewNotes,
		},
		Payment: Payment{
			FeesPaid:       doc.Payment.FeesPaid,
			FeesPaidAt:     doc.Payment.FeesPaidAt,
			PaymentMethod:  enums.PaymentMethod(doc.Payment.PaymentMethod),
			PaymentID:      doc.Payment.PaymentID,
			PaymentDetails: map[string]any(doc.Payment.PaymentDetails),
		},
		EmailHistory: make([]EmailEvent, 0, len(doc.EmailHistory)),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if rec.AdditionalInfo == nil {
		rec.AdditionalInfo = map[string]any{}
	}
	if doc.Payment.FeesAmount != nil {
		amount, err := decimal.NewFromString(doc.Payment.FeesAmount.String())
		if err != nil {
			return nil, err
		}
		rec.Payment.FeesAmount = &amount
	}
	if est := doc.AdminEstimation; est != nil {
		price, err := decimal.NewFromString(est.FinalPrice.String())
		if err != nil {
			return nil, err
		}
		rec.AdminEstimation = &AdminEstimation{
			FinalPrice:     price,
			Message:        est.Message,
			Conditions:     est.Conditions,
			SentAt:         est.SentAt,
			ClientResponse: enums.ClientResponse(est.ClientResponse),
			ResponseAt:     est.ResponseAt,
			ValidUntil:     est.ValidUntil,
			ReminderSent:   est.ReminderSent,
			ReminderSentAt: est.ReminderSentAt,
		}
	}
	for _, e := range doc.EmailHistory {
		rec.EmailHistory = append(rec.EmailHistory, EmailEvent{
			Type:         enums.EmailType(e.Type),
			SentAt:       e.SentAt,
			Subject:      e.Subject,
			Success:      e.Success,
			ErrorMessage: e.ErrorMessage,
			MessageID:    e.MessageID,
		})
	}
	rec.Refresh(r.now())
	return rec, nil
}

func toEmailDocument(e EmailEvent) emailDocument {
	return emailDocument{
		Type:         e.Type.String(),
		SentAt:       e.SentAt,
		Subject:      e.Subject,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
		MessageID:    e.MessageID,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
