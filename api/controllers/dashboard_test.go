package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/api/middleware"
	"github.com/clodamigoles/dossiers.vevo/internal/auth"
	"github.com/clodamigoles/dossiers.vevo/internal/payments"
	"github.com/clodamigoles/dossiers.vevo/internal/photos"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

type stubDashboardService struct {
	dashboardFn func(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	submitFn    func(ctx context.Context, id uuid.UUID) (*sales.Record, error)
}

func (s stubDashboardService) Dashboard(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	if s.dashboardFn != nil {
		return s.dashboardFn(ctx, id)
	}
	return &sales.Record{ID: id}, nil
}

func (s stubDashboardService) SubmitReview(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, id)
	}
	return &sales.Record{ID: id}, nil
}

type stubUploader struct {
	uploadFn func(ctx context.Context, input photos.UploadInput) (*photos.UploadResult, error)
}

func (s stubUploader) Upload(ctx context.Context, input photos.UploadInput) (*photos.UploadResult, error) {
	return s.uploadFn(ctx, input)
}

type stubConfirmer struct {
	confirmFn func(ctx context.Context, input payments.ConfirmInput) (*payments.PaymentRecorded, error)
}

func (s stubConfirmer) Confirm(ctx context.Context, input payments.ConfirmInput) (*payments.PaymentRecorded, error) {
	return s.confirmFn(ctx, input)
}

func withSession(req *http.Request, id uuid.UUID, email string) *http.Request {
	ctx := middleware.WithSaleSession(req.Context(), auth.Session{RecordID: id, Email: email})
	return req.WithContext(ctx)
}

func TestDashboardView(t *testing.T) {
	id := uuid.New()
	svc := stubDashboardService{
		dashboardFn: func(ctx context.Context, got uuid.UUID) (*sales.Record, error) {
			rec := &sales.Record{
				ID:         id,
				Email:      "seller@example.com",
				Status:     enums.EstimationStatusAccepted,
				SaleStatus: enums.SaleStatusPhotosUploaded,
				Photos: sales.Photos{
					Interior: []string{"i1", "i2", "i3"},
					Exterior: []string{"e1", "e2", "e3", "e4"},
				},
			}
			rec.SetSaleInfo(sales.SaleInfo{FullName: "Jeanne Martin", City: "Lyon"})
			return rec, nil
		},
	}
	fees := FeeQuote{Amount: decimal.NewFromInt(50), Currency: "EUR"}

	resp := httptest.NewRecorder()
	DashboardView(svc, fees, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, id, ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	data := decodeData[map[string]any](t, resp)
	if data["email"] != "seller@example.com" || data["interiorCount"] != float64(3) || data["exteriorCount"] != float64(4) {
		t.Fatalf("unexpected payload %v", data)
	}
	info, _ := data["saleInfo"].(map[string]any)
	if info["city"] != "Lyon" {
		t.Fatalf("unexpected sale info %v", data["saleInfo"])
	}
	fee, _ := data["fees"].(map[string]any)
	if fee["amount"] != "50" || fee["currency"] != "EUR" {
		t.Fatalf("unexpected fees %v", data["fees"])
	}
}

func TestDashboardViewProcedureNotStarted(t *testing.T) {
	svc := stubDashboardService{
		dashboardFn: func(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
			return nil, pkgerrors.New(pkgerrors.CodeProcedureNotStarted, "sale procedure not started")
		},
	}
	resp := httptest.NewRecorder()
	DashboardView(svc, FeeQuote{}, nil).ServeHTTP(resp, newRecordRequest(http.MethodGet, uuid.New(), ""))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := decodeError(t, resp).Error.Code; code != string(pkgerrors.CodeProcedureNotStarted) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestDashboardUploadPhotosPassesSessionEmail(t *testing.T) {
	id := uuid.New()
	uploader := stubUploader{
		uploadFn: func(ctx context.Context, input photos.UploadInput) (*photos.UploadResult, error) {
			if input.RecordID != id || input.SessionEmail != "seller@example.com" {
				t.Fatalf("unexpected input %+v", input)
			}
			if input.PhotoType != "exterior" || len(input.Images) != 2 {
				t.Fatalf("unexpected images %+v", input)
			}
			return &photos.UploadResult{
				UploadedURLs:   []string{"https://cdn/a.jpg", "https://cdn/b.jpg"},
				PhotoType:      enums.PhotoTypeExterior,
				TotalExterior:  2,
				ReadyForReview: false,
			}, nil
		},
	}

	body := `{"photoType":"exterior","photos":["data:image/jpeg;base64,AAA","data:image/jpeg;base64,BBB"]}`
	req := withSession(newRecordRequest(http.MethodPost, id, body), id, "seller@example.com")
	resp := httptest.NewRecorder()
	DashboardUploadPhotos(uploader, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	data := decodeData[photos.UploadResult](t, resp)
	if len(data.UploadedURLs) != 2 || data.TotalExterior != 2 {
		t.Fatalf("unexpected result %+v", data)
	}
}

func TestDashboardUploadPhotosValidation(t *testing.T) {
	uploader := stubUploader{
		uploadFn: func(ctx context.Context, input photos.UploadInput) (*photos.UploadResult, error) {
			t.Fatal("uploader should not be called")
			return nil, nil
		},
	}

	cases := map[string]string{
		"unknown type": `{"photoType":"engine","photos":["x"]}`,
		"no photos":    `{"photoType":"interior","photos":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			DashboardUploadPhotos(uploader, 1<<20, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), body))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}

func TestDashboardUploadPhotosBodyTooLarge(t *testing.T) {
	uploader := stubUploader{
		uploadFn: func(ctx context.Context, input photos.UploadInput) (*photos.UploadResult, error) {
			t.Fatal("uploader should not be called")
			return nil, nil
		},
	}
	body := `{"photoType":"interior","photos":["` + strings.Repeat("A", 512) + `"]}`
	resp := httptest.NewRecorder()
	DashboardUploadPhotos(uploader, 64, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if msg := decodeError(t, resp).Error.Message; msg != "request body too large" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDashboardSubmitReviewIncomplete(t *testing.T) {
	svc := stubDashboardService{
		submitFn: func(ctx context.Context, id uuid.UUID) (*sales.Record, error) {
			return nil, pkgerrors.New(pkgerrors.CodeIncompletePhotos, "at least 3 interior and 4 exterior photos are required").
				WithDetails(sales.PhotoCounts{InteriorCount: 1, ExteriorCount: 4})
		},
	}
	resp := httptest.NewRecorder()
	DashboardSubmitReview(svc, FeeQuote{}, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), ""))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	details := decodeError(t, resp).Error.Details
	if details["interiorCount"] != float64(1) {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDashboardPayment(t *testing.T) {
	id := uuid.New()
	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	confirmer := stubConfirmer{
		confirmFn: func(ctx context.Context, input payments.ConfirmInput) (*payments.PaymentRecorded, error) {
			if input.PaymentID != "pi_123" || input.SessionEmail != "seller@example.com" {
				t.Fatalf("unexpected input %+v", input)
			}
			return &payments.PaymentRecorded{
				EstimationID:  id,
				Amount:        decimal.NewFromInt(50),
				Currency:      "EUR",
				PaidAt:        paidAt,
				PaymentMethod: enums.PaymentMethodStripe,
				PaymentID:     input.PaymentID,
				SaleStatus:    enums.SaleStatusPaid,
			}, nil
		},
	}

	req := withSession(newRecordRequest(http.MethodPost, id, `{"paymentId":"pi_123"}`), id, "seller@example.com")
	resp := httptest.NewRecorder()
	DashboardPayment(confirmer, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	data := decodeData[payments.PaymentRecorded](t, resp)
	if data.SaleStatus != enums.SaleStatusPaid || !data.PaidAt.Equal(paidAt) {
		t.Fatalf("unexpected payment %+v", data)
	}
}

func TestDashboardPaymentAlreadyPaid(t *testing.T) {
	confirmer := stubConfirmer{
		confirmFn: func(ctx context.Context, input payments.ConfirmInput) (*payments.PaymentRecorded, error) {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyPaid, "fees already paid")
		},
	}
	resp := httptest.NewRecorder()
	DashboardPayment(confirmer, nil).ServeHTTP(resp, newRecordRequest(http.MethodPost, uuid.New(), `{"paymentId":"pi_123"}`))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
