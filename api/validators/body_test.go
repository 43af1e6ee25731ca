package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

type sendCodeBody struct {
	EstimationID string `json:"estimationId" validate:"required,uuid"`
	Email        string `json:"email" validate:"required,email"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"estimationId":"nope","email":""}`))

	var body sendCodeBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["estimationId"] != "must be a valid uuid" {
		t.Fatalf("unexpected estimationId message %q", details["estimationId"])
	}
	if details["email"] != "is required" {
		t.Fatalf("unexpected email message %q", details["email"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.fr","amount":10}`))

	var body sendCodeBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"seller@example.com"}`))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 8)

	var body sendCodeBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "request body too large" {
		t.Fatalf("expected body too large error, got %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr string
	}{
		{query: "", want: 25},
		{query: "limit=40", want: 40},
		{query: "limit=500", wantErr: "limit is out of range"},
		{query: "limit=ten", wantErr: "limit must be a whole number"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		got, err := QueryInt(req, "limit", 25, 1, 100)
		if tc.wantErr != "" {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Message() != tc.wantErr {
				t.Fatalf("query %q: expected %q, got %v", tc.query, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("query %q: expected %d, got %d (%v)", tc.query, tc.want, got, err)
		}
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]struct {
		in   string
		max  int
		want string
	}{
		"trims and caps":      {in: "  Dupont  ", max: 4, want: "Dupo"},
		"keeps accents whole": {in: "Hélène", max: 2, want: "Hé"},
		"folds whitespace":    {in: "12  rue\t des\nLilas", max: 0, want: "12 rue des Lilas"},
		"drops controls":      {in: "Pa\x00ris", max: 10, want: "Paris"},
		"no trailing space":   {in: "Jean Paul", max: 5, want: "Jean"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CleanText(tc.in, tc.max); got != tc.want {
				t.Fatalf("CleanText(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingData(t *testing.T) {
	var body sendCodeBody

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	if typed == nil || typed.Message() != "request body is required" {
		t.Fatalf("expected missing body error, got %v", typed)
	}

	payload := `{"estimationId":"9b2f7c1e-3a4d-4e5f-8a6b-7c8d9e0f1a2b","email":"a@b.fr"} {"email":"x@y.fr"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	typed = pkgerrors.As(DecodeJSONBody(req, &body))
	if typed == nil || typed.Message() != "request body must hold a single JSON object" {
		t.Fatalf("expected trailing data error, got %v", typed)
	}
}
