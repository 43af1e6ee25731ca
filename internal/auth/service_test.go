package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/db"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

type stubSender struct {
	codes []string
	err   error
}

func (s *stubSender) SendAuthCode(_ context.Context, _ *sales.Record, code string) error {
	s.codes = append(s.codes, code)
	return s.err
}

type testEnv struct {
	svc     *service
	records sales.Repository
	codes   Repository
	sender  *stubSender
	now     time.Time
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := db.OpenMemory(t)
	env := &testEnv{
		records: sales.NewGormRepository(conn),
		codes:   NewGormRepository(conn),
		sender:  &stubSender{},
		now:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{Codes: env.codes, Records: env.records, Sender: env.sender})
	require.NoError(t, err)
	env.svc = svc.(*service)
	env.svc.now = func() time.Time { return env.now }

	seq := []string{"111111", "222222", "333333", "444444"}
	env.svc.newCode = func() (string, error) {
		next := seq[0]
		seq = append(seq[1:], next)
		return next, nil
	}
	return env
}

func (e *testEnv) seedRecord(t *testing.T, email string, sentAt time.Time) *sales.Record {
	t.Helper()
	rec := sales.NewRecord(email)
	rec.Status = enums.EstimationStatusSent
	rec.AdminEstimation = &sales.AdminEstimation{
		FinalPrice: decimal.NewFromInt(12000),
		SentAt:     &sentAt,
	}
	require.NoError(t, e.records.Create(context.Background(), rec))
	return rec
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := pkgerrors.CodeOf(err); got != code {
		t.Fatalf("expected %s error, got %s (%v)", code, got, err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected missing dependencies to fail")
	}
}

func TestRequestCodeInvalidatesPreviousCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rec := env.seedRecord(t, "seller@example.com", env.now)

	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "seller@example.com"}))
	env.advance(time.Minute)
	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "seller@example.com"}))
	require.Equal(t, []string{"111111", "222222"}, env.sender.codes)

	_, err := env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"})
	requireCode(t, err, pkgerrors.CodeInvalidOrExpired)

	grant, err := env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "222222"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, grant.Session.RecordID)
}

func TestVerifyCodeRejectsReplay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rec := env.seedRecord(t, "seller@example.com", env.now)
	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "seller@example.com"}))

	input := VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"}
	_, err := env.svc.VerifyCode(ctx, input)
	require.NoError(t, err)

	_, err = env.svc.VerifyCode(ctx, input)
	requireCode(t, err, pkgerrors.CodeInvalidOrExpired)
}

func TestVerifyCodeRejectsExpiredCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rec := env.seedRecord(t, "seller@example.com", env.now)
	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "seller@example.com"}))

	env.advance(DefaultCodeTTL + time.Second)
	_, err := env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"})
	requireCode(t, err, pkgerrors.CodeInvalidOrExpired)
}

func TestVerifyCodeRejectsMalformedInput(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.VerifyCode(context.Background(), VerifyCodeInput{EstimationID: uuid.New(), Email: "a@b.fr", Code: "12"})
	requireCode(t, err, pkgerrors.CodeInvalidOrExpired)
}

func TestRequestCodeChecksRecordAndEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rec := env.seedRecord(t, "seller@example.com", env.now)

	err := env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: uuid.New(), Email: "seller@example.com"})
	requireCode(t, err, pkgerrors.CodeNotFound)

	err = env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "someone@example.com"})
	requireCode(t, err, pkgerrors.CodeEmailMismatch)

	err = env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, env.sender.codes)
}

func TestRequestCodeDeliveryFailureKeepsCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rec := env.seedRecord(t, "seller@example.com", env.now)
	env.sender.err = errors.New("smtp down")

	err := env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "seller@example.com"})
	requireCode(t, err, pkgerrors.CodeDeliveryFailed)

	_, err = env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"})
	require.NoError(t, err)
}

func TestAuthorizeBindsSessionToRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	recA := env.seedRecord(t, "a@example.com", env.now)
	recB := env.seedRecord(t, "b@example.com", env.now)

	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: recA.ID, Email: "a@example.com"}))
	grant, err := env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: recA.ID, Email: "a@example.com", Code: "111111"})
	require.NoError(t, err)

	sess, err := env.svc.Authorize(ctx, grant.Token, recA.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", sess.Email)

	_, err = env.svc.Authorize(ctx, grant.Token, recB.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = env.svc.Authorize(ctx, "", recA.ID)
	requireCode(t, err, pkgerrors.CodeUnauthenticated)

	_, err = env.svc.Authorize(ctx, "deadbeef", recA.ID)
	requireCode(t, err, pkgerrors.CodeUnauthenticated)
}

func TestSessionOutlivesCodeExpiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	rec := env.seedRecord(t, "seller@example.com", env.now)
	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "seller@example.com"}))
	grant, err := env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"})
	require.NoError(t, err)

	env.advance(400 * 24 * time.Hour)
	sess, err := env.svc.ResolveSession(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, sess.RecordID)
}

func TestSellerLoginEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sentAt := env.now
	rec := env.seedRecord(t, "Seller@Example.com", sentAt)

	stored, err := env.records.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AdminEstimation.ValidUntil)
	assert.True(t, stored.AdminEstimation.ValidUntil.Equal(sentAt.Add(7*24*time.Hour)))

	err = env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "other@example.com"})
	requireCode(t, err, pkgerrors.CodeEmailMismatch)

	require.NoError(t, env.svc.RequestCode(ctx, RequestCodeInput{EstimationID: rec.ID, Email: "SELLER@example.com"}))
	env.advance(10 * time.Minute)

	grant, err := env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"})
	require.NoError(t, err)
	assert.Len(t, grant.Token, 64)
	assert.Equal(t, "seller@example.com", grant.Session.Email)

	_, err = env.svc.VerifyCode(ctx, VerifyCodeInput{EstimationID: rec.ID, Email: "seller@example.com", Code: "111111"})
	requireCode(t, err, pkgerrors.CodeInvalidOrExpired)
}
