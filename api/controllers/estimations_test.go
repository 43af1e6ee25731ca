package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

type stubEstimationService struct {
	estimationFn func(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	acceptFn     func(ctx context.Context, id uuid.UUID, input sales.AcceptInput) (*sales.AcceptResult, error)
	startSaleFn  func(ctx context.Context, id uuid.UUID, input sales.StartSaleInput) (*sales.AcceptResult, error)
	declineFn    func(ctx context.Context, id uuid.UUID) (*sales.Record, error)
}

func (s stubEstimationService) Estimation(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	if s.estimationFn != nil {
		return s.estimationFn(ctx, id)
	}
	return &sales.Record{ID: id}, nil
}

func (s stubEstimationService) Accept(ctx context.Context, id uuid.UUID, input sales.AcceptInput) (*sales.AcceptResult, error) {
	if s.acceptFn != nil {
		return s.acceptFn(ctx, id, input)
	}
	return &sales.AcceptResult{Outcome: sales.OutcomeAccepted, Record: &sales.Record{ID: id}}, nil
}

func (s stubEstimationService) StartSale(ctx context.Context, id uuid.UUID, input sales.StartSaleInput) (*sales.AcceptResult, error) {
	if s.startSaleFn != nil {
		return s.startSaleFn(ctx, id, input)
	}
	return &sales.AcceptResult{Outcome: sales.OutcomeAccepted, Record: &sales.Record{ID: id}}, nil
}

func (s stubEstimationService) Decline(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	if s.declineFn != nil {
		return s.declineFn(ctx, id)
	}
	return &sales.Record{ID: id}, nil
}

func TestEstimationViewHidesContactFields(t *testing.T) {
	id := uuid.New()
	svc := stubEstimationService{
		estimationFn: func(ctx context.Context, got uuid.UUID) (*sales.Record, error) {
			if got != id {
				t.Fatalf("unexpected id %s", got)
			}
			return &sales.Record{
				ID:         id,
				Email:      "seller@example.com",
				Vehicle:    sales.Vehicle{Brand: "Peugeot", Model: "308", Year: 2019},
				Status:     enums.EstimationStatusSent,
				SaleStatus: enums.SaleStatusNotStarted,
				AdminEstimation: &sales.AdminEstimation{
					FinalPrice:     decimal.NewFromInt(12500),
					ClientResponse: enums.ClientResponsePending,
				},
				DaysRemaining: 5,
			}, nil
		},
	}

	resp := httptest.NewRecorder()
	EstimationView(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, id, ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	data := decodeData[map[string]any](t, resp)
	if _, ok := data["email"]; ok {
		t.Fatalf("public view leaked email: %v", data)
	}
	if data["daysRemaining"] != float64(5) || data["procedureStarted"] != false {
		t.Fatalf("unexpected payload %v", data)
	}
	offer, ok := data["adminEstimation"].(map[string]any)
	if !ok || offer["finalPrice"] != "12500" {
		t.Fatalf("unexpected offer %v", data["adminEstimation"])
	}
}

func TestEstimationViewRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	EstimationView(stubEstimationService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestEstimationViewNotFound(t *testing.T) {
	svc := stubEstimationService{
		estimationFn: func(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimation not found")
		},
	}
	resp := httptest.NewRecorder()
	EstimationView(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, uuid.New(), ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestEstimationAcceptSanitizesInput(t *testing.T) {
	id := uuid.New()
	var captured sales.AcceptInput
	svc := stubEstimationService{
		acceptFn: func(ctx context.Context, got uuid.UUID, input sales.AcceptInput) (*sales.AcceptResult, error) {
			captured = input
			return &sales.AcceptResult{
				Outcome: sales.OutcomeAccepted,
				Record:  &sales.Record{ID: id, Status: enums.EstimationStatusAccepted, SaleStatus: enums.SaleStatusInProgress},
			}, nil
		},
	}

	body := `{"firstName":"  Jeanne ","lastName":"Martin","phone":"06 12 34 56 78"}`
	resp := httptest.NewRecorder()
	EstimationAccept(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, id, body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.FirstName != "Jeanne" || captured.LastName != "Martin" {
		t.Fatalf("unexpected input %+v", captured)
	}
	data := decodeData[acceptResponse](t, resp)
	if data.Outcome != sales.OutcomeAccepted || !data.Estimation.ProcedureStarted {
		t.Fatalf("unexpected response %+v", data)
	}
}

func TestEstimationAcceptFieldsAreOptional(t *testing.T) {
	var captured sales.AcceptInput
	svc := stubEstimationService{
		acceptFn: func(ctx context.Context, id uuid.UUID, input sales.AcceptInput) (*sales.AcceptResult, error) {
			captured = input
			return &sales.AcceptResult{Outcome: sales.OutcomeAccepted, Record: &sales.Record{ID: id}}, nil
		},
	}

	for _, body := range []string{`{}`, `{"firstName":"Jeanne"}`} {
		resp := httptest.NewRecorder()
		EstimationAccept(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), body))
		if resp.Code != http.StatusOK {
			t.Fatalf("body %s: expected 200 got %d: %s", body, resp.Code, resp.Body.String())
		}
	}
	if captured.FirstName != "Jeanne" || captured.LastName != "" || captured.Phone != "" {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestEstimationAcceptRejectsBadFields(t *testing.T) {
	resp := httptest.NewRecorder()
	body := `{"firstName":"Jeanne","phone":"123"}`
	EstimationAccept(stubEstimationService{}, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	details := decodeError(t, resp).Error.Details
	if _, ok := details["phone"]; !ok {
		t.Fatalf("expected phone detail, got %v", details)
	}
	if _, ok := details["lastName"]; ok {
		t.Fatalf("lastName is optional, got %v", details)
	}
}

func TestEstimationStartSaleAlreadyStartedRedirects(t *testing.T) {
	id := uuid.New()
	svc := stubEstimationService{
		startSaleFn: func(ctx context.Context, got uuid.UUID, input sales.StartSaleInput) (*sales.AcceptResult, error) {
			if input.Email != "seller@example.com" || input.City != "Lyon" {
				t.Fatalf("unexpected input %+v", input)
			}
			return &sales.AcceptResult{
				Outcome:    sales.OutcomeAlreadyStarted,
				RedirectTo: sales.AuthPath(id),
				Record:     &sales.Record{ID: id, Status: enums.EstimationStatusAccepted, SaleStatus: enums.SaleStatusInProgress},
			}, nil
		},
	}

	body := `{"fullName":"Jeanne Martin","email":"seller@example.com","phone":"0612345678",` +
		`"addressLine1":"1 rue de la Paix","postalCode":"69001","city":"Lyon"}`
	resp := httptest.NewRecorder()
	EstimationStartSale(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, id, body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	data := decodeData[acceptResponse](t, resp)
	if data.Outcome != sales.OutcomeAlreadyStarted || data.RedirectTo != sales.AuthPath(id) {
		t.Fatalf("unexpected response %+v", data)
	}
}

func TestEstimationDeclineConflict(t *testing.T) {
	svc := stubEstimationService{
		declineFn: func(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale already started")
		},
	}
	resp := httptest.NewRecorder()
	EstimationDecline(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), ""))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestEstimationHandlersWithoutService(t *testing.T) {
	resp := httptest.NewRecorder()
	EstimationView(nil, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, uuid.New(), ""))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
