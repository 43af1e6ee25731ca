package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/api/middleware"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

func recordIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "estimation id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid estimation id")
	}
	return id, nil
}

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
			WithDetails(map[string]string{field: "must be a valid uuid"})
	}
	return id, nil
}

// sessionEmail returns the email bound to the seller session, or "" outside SaleSession routes.
func sessionEmail(r *http.Request) string {
	sess, ok := middleware.SaleSessionFromContext(r.Context())
	if !ok {
		return ""
	}
	return sess.Email
}
