package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

type stubAdminService struct {
	createFn   func(ctx context.Context, input sales.CreateInput) (*sales.Record, error)
	listFn     func(ctx context.Context, params sales.ListParams) (*sales.ListResult, error)
	searchFn   func(ctx context.Context, q string) ([]sales.Record, error)
	setFn      func(ctx context.Context, id uuid.UUID, input sales.EstimationInput) (*sales.Record, error)
	reviewFn   func(ctx context.Context, id uuid.UUID, input sales.ReviewInput) (*sales.Record, error)
	foundFn    func(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	cancelFn   func(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	getRecords map[uuid.UUID]*sales.Record
}

func (s stubAdminService) Create(ctx context.Context, input sales.CreateInput) (*sales.Record, error) {
	return s.createFn(ctx, input)
}

func (s stubAdminService) Get(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	if rec, ok := s.getRecords[id]; ok {
		return rec, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimation not found")
}

func (s stubAdminService) List(ctx context.Context, params sales.ListParams) (*sales.ListResult, error) {
	return s.listFn(ctx, params)
}

func (s stubAdminService) Search(ctx context.Context, q string) ([]sales.Record, error) {
	return s.searchFn(ctx, q)
}

func (s stubAdminService) SetEstimation(ctx context.Context, id uuid.UUID, input sales.EstimationInput) (*sales.Record, error) {
	return s.setFn(ctx, id, input)
}

func (s stubAdminService) ReviewPhotos(ctx context.Context, id uuid.UUID, input sales.ReviewInput) (*sales.Record, error) {
	return s.reviewFn(ctx, id, input)
}

func (s stubAdminService) MarkClientFound(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	return s.foundFn(ctx, id)
}

func (s stubAdminService) Cancel(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	return s.cancelFn(ctx, id)
}

func TestAdminCreateEstimation(t *testing.T) {
	var captured sales.CreateInput
	svc := stubAdminService{
		createFn: func(ctx context.Context, input sales.CreateInput) (*sales.Record, error) {
			captured = input
			return &sales.Record{ID: uuid.New(), Email: input.Email, Status: enums.EstimationStatusPending}, nil
		},
	}

	body := `{"email":"seller@example.com","status":"pending","phone":"+33 6 12 34 56 78",` +
		`"vehicle":{"brand":" Renault ","model":"Clio","year":2018,"mileage":85000}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdminCreateEstimation(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "Renault", captured.Vehicle.Brand)
	assert.Equal(t, 85000, captured.Vehicle.Mileage)
	assert.Equal(t, enums.EstimationStatusPending, captured.Status)
	step3, ok := captured.AdditionalInfo["step3"].(map[string]any)
	require.True(t, ok, "phone should be stored under step3")
	assert.Equal(t, "+33 6 12 34 56 78", step3["phoneNumber"])
}

func TestAdminCreateEstimationRejectsPostIntakeStatus(t *testing.T) {
	svc := stubAdminService{
		createFn: func(ctx context.Context, input sales.CreateInput) (*sales.Record, error) {
			t.Fatal("create should not be called")
			return nil, nil
		},
	}
	body := `{"email":"seller@example.com","status":"accepted","vehicle":{"brand":"Renault","model":"Clio","year":2018}}`
	resp := httptest.NewRecorder()
	AdminCreateEstimation(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Error.Details, "status")
}

func TestAdminListEstimationsFilters(t *testing.T) {
	svc := stubAdminService{
		listFn: func(ctx context.Context, params sales.ListParams) (*sales.ListResult, error) {
			assert.Equal(t, 10, params.Limit)
			assert.Equal(t, "abc", params.Cursor)
			assert.Equal(t, enums.SaleStatusUnderReview, params.SaleStatus)
			return &sales.ListResult{Items: []sales.Record{{ID: uuid.New()}}, Cursor: "next"}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=abc&saleStatus=under_review", nil)
	resp := httptest.NewRecorder()
	AdminListEstimations(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decodeData[sales.ListResult](t, resp)
	assert.Len(t, data.Items, 1)
	assert.Equal(t, "next", data.Cursor)
}

func TestAdminListEstimationsInvalidSaleStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminListEstimations(stubAdminService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?saleStatus=shipped", nil))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminSearchEstimations(t *testing.T) {
	svc := stubAdminService{
		searchFn: func(ctx context.Context, q string) ([]sales.Record, error) {
			assert.Equal(t, "0612345678", q)
			return []sales.Record{{ID: uuid.New()}, {ID: uuid.New()}}, nil
		},
	}
	resp := httptest.NewRecorder()
	AdminSearchEstimations(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?q=0612345678", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	data := decodeData[map[string]any](t, resp)
	assert.Equal(t, float64(2), data["count"])
}

func TestAdminGetEstimation(t *testing.T) {
	id := uuid.New()
	svc := stubAdminService{getRecords: map[uuid.UUID]*sales.Record{id: {ID: id, Email: "seller@example.com"}}}

	resp := httptest.NewRecorder()
	AdminGetEstimation(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, id, ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "seller@example.com", decodeData[sales.Record](t, resp).Email)

	resp = httptest.NewRecorder()
	AdminGetEstimation(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, uuid.New(), ""))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminSetEstimation(t *testing.T) {
	id := uuid.New()
	svc := stubAdminService{
		setFn: func(ctx context.Context, got uuid.UUID, input sales.EstimationInput) (*sales.Record, error) {
			assert.Equal(t, id, got)
			assert.True(t, input.FinalPrice.Equal(decimal.RequireFromString("12500.50")))
			assert.Equal(t, "Bon état général", input.Message)
			return &sales.Record{ID: id, Status: enums.EstimationStatusSent}, nil
		},
	}
	body := `{"finalPrice":"12500.50","message":" Bon état général "}`
	resp := httptest.NewRecorder()
	AdminSetEstimation(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, id, body))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, enums.EstimationStatusSent, decodeData[sales.Record](t, resp).Status)
}

func TestAdminSetEstimationRequiresPositivePrice(t *testing.T) {
	svc := stubAdminService{
		setFn: func(ctx context.Context, id uuid.UUID, input sales.EstimationInput) (*sales.Record, error) {
			t.Fatal("set should not be called")
			return nil, nil
		},
	}
	resp := httptest.NewRecorder()
	AdminSetEstimation(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), `{"finalPrice":0}`))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeError(t, resp).Error.Details, "finalPrice")
}

func TestAdminReviewPhotos(t *testing.T) {
	svc := stubAdminService{
		reviewFn: func(ctx context.Context, id uuid.UUID, input sales.ReviewInput) (*sales.Record, error) {
			assert.Equal(t, sales.ReviewReject, input.Decision)
			assert.Equal(t, "photos floues", input.Notes)
			return &sales.Record{ID: id, SaleStatus: enums.SaleStatusInProgress}, nil
		},
	}
	resp := httptest.NewRecorder()
	AdminReviewPhotos(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), `{"decision":"reject","notes":"photos floues"}`))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = httptest.NewRecorder()
	AdminReviewPhotos(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), `{"decision":"maybe"}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminMarkClientFoundAndCancel(t *testing.T) {
	svc := stubAdminService{
		foundFn: func(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid transition").
				WithDetails(sales.StateTransition{From: "in_progress", To: "completed"})
		},
		cancelFn: func(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
			return &sales.Record{ID: id, SaleStatus: enums.SaleStatusCancelled}, nil
		},
	}

	resp := httptest.NewRecorder()
	AdminMarkClientFound(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), ""))
	require.Equal(t, http.StatusConflict, resp.Code)
	details := decodeError(t, resp).Error.Details
	assert.Equal(t, "in_progress", details["from"])

	resp = httptest.NewRecorder()
	AdminCancelEstimation(svc, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.SaleStatusCancelled, decodeData[sales.Record](t, resp).SaleStatus)
}
