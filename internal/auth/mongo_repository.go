package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const codesCollection = "auth_codes"

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(codesCollection)}
}

// EnsureCodeIndexes lets the server expire unused codes on its own and keeps
// session tokens unique among consumed codes.
func EnsureCodeIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(codesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetPartialFilterExpression(bson.M{"used": false}),
		},
		{
			Keys:    bson.D{{Key: "sessionToken", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "estimationId", Value: 1}, {Key: "email", Value: 1}, {Key: "code", Value: 1}}},
	})
	return err
}

type codeDocument struct {
	ID           string     `bson:"_id"`
	EstimationID string     `bson:"estimationId"`
	Email        string     `bson:"email"`
	Code         string     `bson:"code"`
	ExpiresAt    time.Time  `bson:"expiresAt"`
	Used         bool       `bson:"used"`
	UsedAt       *time.Time `bson:"usedAt,omitempty"`
	SessionToken *string    `bson:"sessionToken,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func (r *mongoRepository) Create(ctx context.Context, code *Code) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	now := time.Now().UTC()
	if code.CreatedAt.IsZero() {
		code.CreatedAt = now
	}
	code.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, toDocument(code))
	return err
}

func (r *mongoRepository) InvalidateLive(ctx context.Context, estimationID uuid.UUID, email string, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"estimationId": estimationID.String(),
			"email":        email,
			"used":         false,
			"expiresAt":    bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"used": true, "updatedAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoRepository) FindLive(ctx context.Context, estimationID uuid.UUID, email, code string, now time.Time) (*Code, error) {
	filter := bson.M{
		"estimationId": estimationID.String(),
		"email":        email,
		"code":         code,
		"used":         false,
		"expiresAt":    bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findOne(ctx, filter, opts)
}

func (r *mongoRepository) Consume(ctx context.Context, id uuid.UUID, token string, now time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "used": false, "expiresAt": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{
			"used":         true,
			"usedAt":       now,
			"sessionToken": token,
			"updatedAt":    now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoRepository) FindBySessionToken(ctx context.Context, token string) (*Code, error) {
	return r.findOne(ctx, bson.M{"sessionToken": token, "used": true})
}

// DeleteExpiredUnused mirrors the TTL index for deployments where the TTL monitor lags.
func (r *mongoRepository) DeleteExpiredUnused(ctx context.Context, now time.Time, limit int) (int64, error) {
	filter := bson.M{"used": false, "expiresAt": bson.M{"$lte": now}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "used": false})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*Code, error) {
	var doc codeDocument
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func toDocument(c *Code) codeDocument {
	return codeDocument{
		ID:           c.ID.String(),
		EstimationID: c.EstimationID.String(),
		Email:        c.Email,
		Code:         c.Code,
		ExpiresAt:    c.ExpiresAt,
		Used:         c.Used,
		UsedAt:       c.UsedAt,
		SessionToken: c.SessionToken,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromDocument(doc codeDocument) (*Code, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	estimationID, err := uuid.Parse(doc.EstimationID)
	if err != nil {
		return nil, err
	}
	return &Code{
		ID:           id,
		EstimationID: estimationID,
		Email:        doc.Email,
		Code:         doc.Code,
		ExpiresAt:    doc.ExpiresAt.UTC(),
		Used:         doc.Used,
		UsedAt:       doc.UsedAt,
		SessionToken: doc.SessionToken,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}, nil
}
