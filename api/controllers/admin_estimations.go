package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	"github.com/clodamigoles/dossiers.vevo/api/validators"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/pagination"
)

type adminEstimationService interface {
	Create(ctx context.Context, input sales.CreateInput) (*sales.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	List(ctx context.Context, params sales.ListParams) (*sales.ListResult, error)
	Search(ctx context.Context, q string) ([]sales.Record, error)
	SetEstimation(ctx context.Context, id uuid.UUID, input sales.EstimationInput) (*sales.Record, error)
	ReviewPhotos(ctx context.Context, id uuid.UUID, input sales.ReviewInput) (*sales.Record, error)
	MarkClientFound(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	Cancel(ctx context.Context, id uuid.UUID) (*sales.Record, error)
}

type vehicleRequest struct {
	Brand            string `json:"brand" validate:"required,max=100"`
	Model            string `json:"model" validate:"required,max=100"`
	Year             int    `json:"year" validate:"required,min=1900,max=2100"`
	BodyType         string `json:"bodyType" validate:"max=50"`
	FuelType         string `json:"fuelType" validate:"max=50"`
	Horsepower       int    `json:"horsepower" validate:"min=0,max=5000"`
	Transmission     string `json:"transmission" validate:"max=50"`
	Doors            int    `json:"doors" validate:"min=0,max=10"`
	Mileage          int    `json:"mileage" validate:"min=0"`
	SellingTimeframe string `json:"sellingTimeframe" validate:"max=100"`
	BuyerPreference  string `json:"buyerPreference" validate:"max=100"`
}

type createEstimationRequest struct {
	Email          string         `json:"email" validate:"required,email"`
	Vehicle        vehicleRequest `json:"vehicle" validate:"required"`
	Status         string         `json:"status" validate:"omitempty,oneof=step1 step2 step3 pending analyzed"`
	Phone          string         `json:"phone" validate:"max=30"`
	AdditionalInfo map[string]any `json:"additionalInfo"`
	Notes          string         `json:"notes" validate:"max=2000"`
}

type setEstimationRequest struct {
	FinalPrice decimal.Decimal `json:"finalPrice"`
	Message    string          `json:"message" validate:"max=5000"`
	Conditions string          `json:"conditions" validate:"max=5000"`
	ValidUntil *time.Time      `json:"validUntil"`
}

type reviewPhotosRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// AdminCreateEstimation registers a new estimation request from the intake funnel.
func AdminCreateEstimation(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var body createEstimationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sales.CreateInput{
			Email: body.Email,
			Vehicle: sales.Vehicle{
				Brand:            validators.CleanText(body.Vehicle.Brand, 100),
				Model:            validators.CleanText(body.Vehicle.Model, 100),
				Year:             body.Vehicle.Year,
				BodyType:         strings.TrimSpace(body.Vehicle.BodyType),
				FuelType:         strings.TrimSpace(body.Vehicle.FuelType),
				Horsepower:       body.Vehicle.Horsepower,
				Transmission:     strings.TrimSpace(body.Vehicle.Transmission),
				Doors:            body.Vehicle.Doors,
				Mileage:          body.Vehicle.Mileage,
				SellingTimeframe: strings.TrimSpace(body.Vehicle.SellingTimeframe),
				BuyerPreference:  strings.TrimSpace(body.Vehicle.BuyerPreference),
			},
			AdditionalInfo: body.AdditionalInfo,
			Notes:          body.Notes,
		}
		if phone := strings.TrimSpace(body.Phone); phone != "" {
			if input.AdditionalInfo == nil {
				input.AdditionalInfo = map[string]any{}
			}
			if _, ok := input.AdditionalInfo["step3"]; !ok {
				input.AdditionalInfo["step3"] = map[string]any{"phoneNumber": phone}
			}
		}
		if body.Status != "" {
			status, err := enums.ParseEstimationStatus(body.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = status
		}

		rec, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rec)
	}
}

// AdminListEstimations pages through records, newest first.
func AdminListEstimations(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		limit, err := validators.QueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()
		params := sales.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		}
		if raw := strings.TrimSpace(query.Get("saleStatus")); raw != "" {
			saleStatus, err := enums.ParseSaleStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid saleStatus"))
				return
			}
			params.SaleStatus = saleStatus
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseEstimationStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminSearchEstimations looks records up by id, email or phone.
func AdminSearchEstimations(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		records, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items": records,
			"count": len(records),
		})
	}
}

func AdminGetEstimation(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return adminRecordAction(svc, logg, func(ctx context.Context, id uuid.UUID, _ *http.Request) (*sales.Record, error) {
		return svc.Get(ctx, id)
	})
}

// AdminSetEstimation issues the offer and emails it to the seller.
func AdminSetEstimation(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return adminRecordAction(svc, logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (*sales.Record, error) {
		var body setEstimationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		if !body.FinalPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"finalPrice": "must be greater than 0"})
		}
		return svc.SetEstimation(ctx, id, sales.EstimationInput{
			FinalPrice: body.FinalPrice,
			Message:    strings.TrimSpace(body.Message),
			Conditions: strings.TrimSpace(body.Conditions),
			ValidUntil: body.ValidUntil,
		})
	})
}

func AdminReviewPhotos(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return adminRecordAction(svc, logg, func(ctx context.Context, id uuid.UUID, r *http.Request) (*sales.Record, error) {
		var body reviewPhotosRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.ReviewPhotos(ctx, id, sales.ReviewInput{
			Decision: sales.ReviewDecision(body.Decision),
			Notes:    strings.TrimSpace(body.Notes),
		})
	})
}

func AdminMarkClientFound(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return adminRecordAction(svc, logg, func(ctx context.Context, id uuid.UUID, _ *http.Request) (*sales.Record, error) {
		return svc.MarkClientFound(ctx, id)
	})
}

func AdminCancelEstimation(svc adminEstimationService, logg *logger.Logger) http.HandlerFunc {
	return adminRecordAction(svc, logg, func(ctx context.Context, id uuid.UUID, _ *http.Request) (*sales.Record, error) {
		return svc.Cancel(ctx, id)
	})
}

type recordAction func(ctx context.Context, id uuid.UUID, r *http.Request) (*sales.Record, error)

func adminRecordAction(svc adminEstimationService, logg *logger.Logger, action recordAction) http.HandlerFunc {
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

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithRecordID(ctx, id.String())
		}
		rec, err := action(ctx, id, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}
