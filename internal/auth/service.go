package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/auth/session"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

const (
	DefaultCodeTTL = 15 * time.Minute

	invalidCodeMessage = "invalid or expired code"
)

// Service implements the one-time-code login and the session checks built on it.
type Service interface {
	RequestCode(ctx context.Context, input RequestCodeInput) error
	VerifyCode(ctx context.Context, input VerifyCodeInput) (*SessionGrant, error)
	ResolveSession(ctx context.Context, token string) (*Session, error)
	Authorize(ctx context.Context, token string, recordID uuid.UUID) (*Session, error)
}

// CodeSender delivers the login code to the seller.
type CodeSender interface {
	SendAuthCode(ctx context.Context, rec *sales.Record, code string) error
}

type recordLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*sales.Record, error)
}

type ServiceParams struct {
	Codes   Repository
	Records recordLookup
	Sender  CodeSender
	CodeTTL time.Duration
	Logger  *logger.Logger
}

type service struct {
	codes   Repository
	records recordLookup
	sender  CodeSender
	ttl     time.Duration
	logg    *logger.Logger
	now     func() time.Time

	newCode  func() (string, error)
	newToken func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Codes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth code repository is required")
	}
	if params.Records == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "record repository is required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "code sender is required")
	}
	ttl := params.CodeTTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &service{
		codes:    params.Codes,
		records:  params.Records,
		sender:   params.Sender,
		ttl:      ttl,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  session.GenerateCode,
		newToken: session.GenerateToken,
	}, nil
}

func (s *service) RequestCode(ctx context.Context, input RequestCodeInput) error {
	email := sales.NormalizeEmail(input.Email)
	if input.EstimationID == uuid.Nil || email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "estimationId and email are required")
	}

	rec, err := s.records.FindByID(ctx, input.EstimationID)
	if err != nil {
		return sales.StoreError(err, "load estimation")
	}
	if sales.NormalizeEmail(rec.Email) != email {
		return pkgerrors.New(pkgerrors.CodeEmailMismatch, "email does not match this estimation")
	}

	now := s.now()
	invalidated, err := s.codes.InvalidateLive(ctx, rec.ID, email, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalidate previous codes")
	}

	value, err := s.newCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	code := &Code{
		EstimationID: rec.ID,
		Email:        email,
		Code:         value,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store code")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"estimation_id": rec.ID.String(),
		"invalidated":   invalidated,
	})
	if err := s.sender.SendAuthCode(ctx, rec, value); err != nil {
		s.logg.Error(logCtx, "auth.code_delivery_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDeliveryFailed, err, "could not deliver the access code")
	}
	s.logg.Info(logCtx, "auth.code_sent")
	return nil
}

func (s *service) VerifyCode(ctx context.Context, input VerifyCodeInput) (*SessionGrant, error) {
	email := sales.NormalizeEmail(input.Email)
	value := strings.TrimSpace(input.Code)
	if input.EstimationID == uuid.Nil || email == "" || len(value) != session.CodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrExpired, invalidCodeMessage)
	}

	now := s.now()
	code, err := s.codes.FindLive(ctx, input.EstimationID, email, value, now)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrExpired, invalidCodeMessage)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup code")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate session token")
	}
	ok, err := s.codes.Consume(ctx, code.ID, token, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume code")
	}
	if !ok {
		// lost a race with another verification of the same code
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrExpired, invalidCodeMessage)
	}

	s.logg.Info(s.logg.WithField(ctx, "estimation_id", code.EstimationID.String()), "auth.code_verified")
	return &SessionGrant{
		Token:   token,
		Session: Session{RecordID: code.EstimationID, Email: code.Email},
	}, nil
}

func (s *service) ResolveSession(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required")
	}
	code, err := s.codes.FindBySessionToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid session")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup session")
	}
	return &Session{RecordID: code.EstimationID, Email: code.Email}, nil
}

func (s *service) Authorize(ctx context.Context, token string, recordID uuid.UUID) (*Session, error) {
	sess, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.RecordID != recordID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "session does not grant access to this estimation")
	}
	return sess, nil
}
