package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	pkgredis "github.com/clodamigoles/dossiers.vevo/pkg/redis"
)

const (
	// IdempotencyKeyHeader carries the client generated retry key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader is set on responses served from the store.
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255
)

type idempotencyRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency makes a POST safe to retry: the first response for a key is kept for ttl
// and replayed for the same body. Concurrent duplicates are refused while the first
// is running, and 5xx responses free the key so the client can try again.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || ttl <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" || len(clientKey) > maxIdempotencyKeyLength {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required").
					WithDetails(map[string]any{"header": IdempotencyKeyHeader, "maxLength": maxIdempotencyKeyLength}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := fingerprint(r.Method, r.URL.Path, body)
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)

			reservation, err := store.ReserveIdempotency(ctx, key, ttl)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if !reservation.Acquired {
				replayOrRefuse(ctx, logg, w, reservation.Stored, requestHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if err := store.AbandonIdempotency(ctx, key); err != nil {
					logError(ctx, logg, "idempotency.abandon_failed", err)
				}
				return
			}

			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: requestHash,
			})
			if err != nil {
				logError(ctx, logg, "idempotency.marshal_failed", err)
				return
			}
			if err := store.CompleteIdempotency(ctx, key, string(payload), ttl); err != nil {
				logError(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

func replayOrRefuse(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, requestHash string) {
	if stored == pkgredis.IdempotencyPending {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this Idempotency-Key is still in progress"))
		return
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(IdempotentReplayHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(decoded)
}

// idempotencyScope ties keys to the caller: the sale record for seller sessions,
// the token subject for back office operators.
func idempotencyScope(r *http.Request) string {
	actor := AdminSubjectFromContext(r.Context())
	if sess, ok := SaleSessionFromContext(r.Context()); ok {
		actor = sess.RecordID.String()
	}
	if actor == "" {
		actor = "anonymous"
	}
	return strings.Join([]string{actor, r.Method, r.URL.Path}, "|")
}

func fingerprint(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method + " " + path + "\n"))
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
