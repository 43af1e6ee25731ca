package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthenticated, status: http.StatusUnauthorized},
		{code: CodeInvalidOrExpired, status: http.StatusUnauthorized},
		{code: CodeEmailMismatch, status: http.StatusForbidden},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeProcedureNotStarted, status: http.StatusConflict},
		{code: CodeIncompletePhotos, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeInvalidImage, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeAlreadyPaid, status: http.StatusConflict},
		{code: CodeNotReady, status: http.StatusConflict, detailsOK: true},
		{code: CodeDeliveryFailed, status: http.StatusBadGateway, retryable: true},
		{code: CodeStateConflict, status: http.StatusConflict, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Internal(cause, "saving record")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if wrapped.Error() != "INTERNAL_ERROR: saving record: boom" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestCodeOfFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeAlreadyPaid, "paid"))
	if got := CodeOf(err); got != CodeAlreadyPaid {
		t.Fatalf("expected ALREADY_PAID, got %s", got)
	}
	if !IsCode(err, CodeAlreadyPaid) {
		t.Fatal("IsCode should match wrapped code")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("untyped errors should map to internal, got %s", got)
	}
	if IsCode(nil, CodeInternal) {
		t.Fatal("nil error should never match")
	}
}

func TestLogFieldsCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("smtp down"), "sending code")
	fields := LogFields(err)
	if fields["error_code"] != string(CodeDependency) {
		t.Fatalf("expected dependency code, got %v", fields["error_code"])
	}
	if chain, _ := fields["error_chain"].([]string); len(chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", fields["error_chain"])
	}
	if _, ok := fields["db_code"]; ok {
		t.Fatal("db fields should be omitted without a driver error")
	}
}

func TestLogFieldsReadsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_auth_codes_session_token", TableName: "auth_codes"}
	fields := LogFields(Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "duplicate session"))
	if fields["db_code"] != "23505" || fields["db_constraint"] != "idx_auth_codes_session_token" {
		t.Fatalf("unexpected postgres fields %v", fields)
	}
	if _, ok := fields["db_column"]; ok {
		t.Fatal("empty column should be omitted")
	}
}

func TestLogFieldsFollowsJoinedErrors(t *testing.T) {
	joined := stdErrors.Join(stdErrors.New("first"), stdErrors.New("second"))
	chain, _ := LogFields(joined)["error_chain"].([]string)
	if len(chain) != 3 {
		t.Fatalf("expected joined error plus both members, got %v", chain)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}
