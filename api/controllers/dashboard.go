package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	"github.com/clodamigoles/dossiers.vevo/api/validators"
	"github.com/clodamigoles/dossiers.vevo/internal/payments"
	"github.com/clodamigoles/dossiers.vevo/internal/photos"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

type dashboardService interface {
	Dashboard(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	SubmitReview(ctx context.Context, id uuid.UUID) (*sales.Record, error)
}

type photoUploader interface {
	Upload(ctx context.Context, input photos.UploadInput) (*photos.UploadResult, error)
}

type paymentConfirmer interface {
	Confirm(ctx context.Context, input payments.ConfirmInput) (*payments.PaymentRecorded, error)
}

type uploadPhotosRequest struct {
	PhotoType string   `json:"photoType" validate:"required,oneof=interior exterior"`
	Photos    []string `json:"photos" validate:"required,min=1"`
}

type confirmPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required,max=255"`
	PayerID   string `json:"payerId" validate:"max=255"`
}

// DashboardView returns the seller's view of a started sale.
func DashboardView(svc dashboardService, fees FeeQuote, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, err := svc.Dashboard(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDashboardView(rec, fees))
	}
}

// DashboardUploadPhotos stores one batch of photos of a single type.
func DashboardUploadPhotos(uploader photoUploader, maxBodyBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if uploader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photo service unavailable"))
			return
		}
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		var body uploadPhotosRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := uploader.Upload(r.Context(), photos.UploadInput{
			RecordID:     id,
			SessionEmail: sessionEmail(r),
			PhotoType:    body.PhotoType,
			Images:       body.Photos,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// DashboardSubmitReview hands the photo sets to the back office.
func DashboardSubmitReview(svc dashboardService, fees FeeQuote, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, err := svc.SubmitReview(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDashboardView(rec, fees))
	}
}

// DashboardPayment confirms the intermediation fee payment reported by the client.
func DashboardPayment(confirmer paymentConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recorded, err := confirmer.Confirm(r.Context(), payments.ConfirmInput{
			RecordID:     id,
			SessionEmail: sessionEmail(r),
			PaymentID:    body.PaymentID,
			PayerID:      body.PayerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recorded)
	}
}
