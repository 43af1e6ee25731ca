package photos

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/storage"
)

const MaxPhotosPerBatch = 20

type recordStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	AppendPhotos(ctx context.Context, id uuid.UUID, photoType enums.PhotoType, urls []string, at time.Time) (*sales.Record, error)
}

// Service validates and stores vehicle photos for a sale in progress.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

type UploadInput struct {
	RecordID     uuid.UUID
	SessionEmail string
	PhotoType    string
	Images       []string
}

type UploadResult struct {
	UploadedURLs   []string        `json:"uploadedUrls"`
	PhotoType      enums.PhotoType `json:"photoType"`
	TotalInterior  int             `json:"totalInterior"`
	TotalExterior  int             `json:"totalExterior"`
	ReadyForReview bool            `json:"readyForReview"`
}

type InvalidImageDetails struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type service struct {
	records  recordStore
	store    storage.ObjectStore
	logg     *logger.Logger
	maxBatch int
	now      func() time.Time
}

func NewService(records recordStore, store storage.ObjectStore, logg *logger.Logger) (Service, error) {
	if records == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "record repository required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "object store required")
	}
	return &service{
		records:  records,
		store:    store,
		logg:     logg,
		maxBatch: MaxPhotosPerBatch,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	photoType, err := enums.ParsePhotoType(input.PhotoType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photoType must be interior or exterior")
	}
	if len(input.Images) == 0 || len(input.Images) > s.maxBatch {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("between 1 and %d photos are required", s.maxBatch))
	}

	rec, err := s.records.FindByID(ctx, input.RecordID)
	if err != nil {
		return nil, sales.StoreError(err, "load estimation")
	}
	if !rec.AcceptsPhotos() {
		return nil, pkgerrors.New(pkgerrors.CodeProcedureNotStarted, "photos can only be added while the sale is in progress")
	}

	images := make([]*Image, 0, len(input.Images))
	for i, payload := range input.Images {
		img, err := DecodeImage(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidImage, err, fmt.Sprintf("photo %d is not a valid image", i)).
				WithDetails(InvalidImageDetails{Index: i, Reason: err.Error()})
		}
		images = append(images, img)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"estimation_id": rec.ID.String(),
		"session_email": input.SessionEmail,
		"photo_type":    photoType.String(),
		"count":         len(images),
	})

	now := s.now()
	urls := make([]string, 0, len(images))
	for i, img := range images {
		key, err := objectKey(rec.ID, photoType, now, img.Extension)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build object key")
		}
		obj, err := s.store.Put(ctx, key, img.Data, storage.PutOptions{ContentType: img.ContentType, PublicRead: true})
		if err != nil {
			if len(urls) > 0 {
				s.logg.Warn(s.logg.WithField(logCtx, "orphaned_urls", urls), "photos.upload_orphaned_objects")
			}
			s.logg.Error(s.logg.WithField(logCtx, "index", i), "photos.upload_failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "photo storage unavailable")
		}
		urls = append(urls, obj.URL)
	}

	updated, err := s.records.AppendPhotos(ctx, rec.ID, photoType, urls, now)
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "orphaned_urls", urls), "photos.upload_orphaned_objects")
		return nil, sales.StoreError(err, "record photos")
	}

	interior, exterior := updated.PhotoCounts()
	s.logg.Info(logCtx, "photos.uploaded")
	return &UploadResult{
		UploadedURLs:   urls,
		PhotoType:      photoType,
		TotalInterior:  interior,
		TotalExterior:  exterior,
		ReadyForReview: interior > 0 && exterior > 0,
	}, nil
}

// objectKey builds {recordId}/{photoType}_{unixMillis}_{random}.{ext}.
func objectKey(recordID uuid.UUID, photoType enums.PhotoType, at time.Time, ext string) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s_%d_%s.%s", recordID, photoType, at.UnixMilli(), hex.EncodeToString(buf), ext), nil
}
