package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	"github.com/clodamigoles/dossiers.vevo/internal/auth"
	"github.com/clodamigoles/dossiers.vevo/pkg/auth/session"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

type sessionAuthorizer interface {
	Authorize(ctx context.Context, token string, recordID uuid.UUID) (*auth.Session, error)
}

// SaleSession requires a seller session cookie bound to the {param} record of the route.
func SaleSession(authorizer sessionAuthorizer, cookieName, param string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recordID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, param)))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid estimation id"))
				return
			}

			token, _ := session.TokenFromRequest(r, cookieName)
			sess, err := authorizer.Authorize(r.Context(), token, recordID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithSaleSession(r.Context(), *sess)
			if logg != nil {
				ctx = logg.WithRecordID(ctx, sess.RecordID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
