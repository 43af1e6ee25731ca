package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	"github.com/clodamigoles/dossiers.vevo/api/validators"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

const maxNameLen = 100

type estimationService interface {
	Estimation(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	Accept(ctx context.Context, id uuid.UUID, input sales.AcceptInput) (*sales.AcceptResult, error)
	StartSale(ctx context.Context, id uuid.UUID, input sales.StartSaleInput) (*sales.AcceptResult, error)
	Decline(ctx context.Context, id uuid.UUID) (*sales.Record, error)
}

// acceptRequest fields are optional; the seller may accept with an empty object.
type acceptRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Phone     string `json:"phone" validate:"omitempty,min=6,max=30"`
}

type startSaleRequest struct {
	FullName     string `json:"fullName" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=6,max=30"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2" validate:"max=200"`
	PostalCode   string `json:"postalCode" validate:"required,max=20"`
	City         string `json:"city" validate:"required,max=100"`
	Country      string `json:"country" validate:"max=100"`
}

// EstimationView returns the public view of an estimation. Possession of the id is the only credential.
func EstimationView(svc estimationService, logg *logger.Logger) http.HandlerFunc {
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

		rec, err := svc.Estimation(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newEstimationView(rec))
	}
}

// EstimationAccept records the lighter acceptance form (name and phone).
func EstimationAccept(svc estimationService, logg *logger.Logger) http.HandlerFunc {
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

		var body acceptRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Accept(r.Context(), id, sales.AcceptInput{
			FirstName: validators.CleanText(body.FirstName, maxNameLen),
			LastName:  validators.CleanText(body.LastName, maxNameLen),
			Phone:     validators.CleanText(body.Phone, 30),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAcceptResponse(result))
	}
}

// EstimationStartSale accepts the offer with the full contact and address block.
func EstimationStartSale(svc estimationService, logg *logger.Logger) http.HandlerFunc {
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

		var body startSaleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.StartSale(r.Context(), id, sales.StartSaleInput{
			FullName:     validators.CleanText(body.FullName, 200),
			Email:        body.Email,
			Phone:        validators.CleanText(body.Phone, 30),
			AddressLine1: validators.CleanText(body.AddressLine1, 200),
			AddressLine2: validators.CleanText(body.AddressLine2, 200),
			PostalCode:   validators.CleanText(body.PostalCode, 20),
			City:         validators.CleanText(body.City, maxNameLen),
			Country:      validators.CleanText(body.Country, maxNameLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAcceptResponse(result))
	}
}

func EstimationDecline(svc estimationService, logg *logger.Logger) http.HandlerFunc {
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

		rec, err := svc.Decline(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newEstimationView(rec))
	}
}

func newAcceptResponse(result *sales.AcceptResult) acceptResponse {
	return acceptResponse{
		Outcome:    result.Outcome,
		RedirectTo: result.RedirectTo,
		Estimation: newEstimationView(result.Record),
	}
}
