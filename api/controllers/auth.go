package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/api/responses"
	"github.com/clodamigoles/dossiers.vevo/api/validators"
	"github.com/clodamigoles/dossiers.vevo/internal/auth"
	"github.com/clodamigoles/dossiers.vevo/pkg/auth/session"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

type codeAuthenticator interface {
	RequestCode(ctx context.Context, input auth.RequestCodeInput) error
	VerifyCode(ctx context.Context, input auth.VerifyCodeInput) (*auth.SessionGrant, error)
	ResolveSession(ctx context.Context, token string) (*auth.Session, error)
}

type sendCodeRequest struct {
	EstimationID string `json:"estimationId" validate:"required,uuid"`
	Email        string `json:"email" validate:"required,email"`
}

type verifyCodeRequest struct {
	EstimationID string `json:"estimationId" validate:"required,uuid"`
	Email        string `json:"email" validate:"required,email"`
	Code         string `json:"code" validate:"required"`
}

type sendCodeResponse struct {
	Sent             bool `json:"sent"`
	ExpiresInMinutes int  `json:"expiresInMinutes"`
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	EstimationID  *uuid.UUID `json:"estimationId,omitempty"`
	Email         string     `json:"email,omitempty"`
	RedirectTo    string     `json:"redirectTo,omitempty"`
}

// AuthSendCode emails a fresh one-time code for the estimation.
func AuthSendCode(svc codeAuthenticator, codeTTL time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body sendCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimationID, err := parseUUIDField("estimationId", body.EstimationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.RequestCode(r.Context(), auth.RequestCodeInput{
			EstimationID: estimationID,
			Email:        body.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if codeTTL <= 0 {
			codeTTL = auth.DefaultCodeTTL
		}
		responses.WriteSuccess(w, sendCodeResponse{
			Sent:             true,
			ExpiresInMinutes: int(codeTTL / time.Minute),
		})
	}
}

// AuthVerifyCode exchanges a valid code for the session cookie.
func AuthVerifyCode(svc codeAuthenticator, cookie session.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body verifyCodeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimationID, err := parseUUIDField("estimationId", body.EstimationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		grant, err := svc.VerifyCode(r.Context(), auth.VerifyCodeInput{
			EstimationID: estimationID,
			Email:        body.Email,
			Code:         body.Code,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, session.NewCookie(cookie, grant.Token))
		id := grant.Session.RecordID
		responses.WriteSuccess(w, sessionResponse{
			Authenticated: true,
			EstimationID:  &id,
			Email:         grant.Session.Email,
			RedirectTo:    "/dashboard/" + id.String(),
		})
	}
}

// AuthSession reports whether the request carries a live seller session.
// An absent or unknown cookie is a normal answer, not an error.
func AuthSession(svc codeAuthenticator, cookieName string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token, ok := session.TokenFromRequest(r, cookieName)
		if !ok {
			responses.WriteSuccess(w, sessionResponse{Authenticated: false})
			return
		}

		sess, err := svc.ResolveSession(r.Context(), token)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthenticated) {
				responses.WriteSuccess(w, sessionResponse{Authenticated: false})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := sess.RecordID
		responses.WriteSuccess(w, sessionResponse{
			Authenticated: true,
			EstimationID:  &id,
			Email:         sess.Email,
		})
	}
}

// AuthLogout expires the cookie in the browser. The token itself stays valid.
func AuthLogout(cookie session.CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, session.ClearCookie(cookie))
		responses.WriteSuccess(w, map[string]bool{"loggedOut": true})
	}
}
