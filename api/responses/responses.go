package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/types"
)

// callerMessages lists the codes whose own message is safe to show to the client.
var callerMessages = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:          true,
	pkgerrors.CodeUnauthenticated:     true,
	pkgerrors.CodeInvalidOrExpired:    true,
	pkgerrors.CodeEmailMismatch:       true,
	pkgerrors.CodeForbidden:           true,
	pkgerrors.CodeNotFound:            true,
	pkgerrors.CodeConflict:            true,
	pkgerrors.CodeStateConflict:       true,
	pkgerrors.CodeProcedureNotStarted: true,
	pkgerrors.CodeIncompletePhotos:    true,
	pkgerrors.CodeInvalidImage:        true,
	pkgerrors.CodeAlreadyPaid:         true,
	pkgerrors.CodeNotReady:            true,
	pkgerrors.CodeIdempotency:         true,
	pkgerrors.CodeRateLimit:           true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Data(data))
}

// WriteError maps any error onto the public error envelope and logs it.
// Client errors are logged at warn level, everything else at error level with the chain dump.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if callerMessages[typed.Code()] {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.Failure{
		Error: types.Problem{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		if meta.HTTPStatus < http.StatusInternalServerError {
			logCtx := logg.WithFields(ctx, map[string]any{
				"error":      err.Error(),
				"error_code": string(typed.Code()),
				"status":     meta.HTTPStatus,
			})
			logg.Warn(logCtx, "request.rejected")
		} else {
			fields := pkgerrors.LogFields(err)
			fields["status"] = meta.HTTPStatus
			fields["retryable"] = meta.Retryable
			logCtx := logg.WithFields(ctx, fields)
			logg.Error(logCtx, "request.error", err)
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
