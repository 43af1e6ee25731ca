package middleware

import (
	"context"

	"github.com/clodamigoles/dossiers.vevo/internal/auth"
)

type contextKey string

const (
	ctxAdminSubject contextKey = "admin_subject"
	ctxAdminRole    contextKey = "admin_role"
	ctxSaleSession  contextKey = "sale_session"
)

func AdminSubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminSubject).(string); ok {
		return v
	}
	return ""
}

func AdminRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminRole).(string); ok {
		return v
	}
	return ""
}

// SaleSessionFromContext returns the seller session resolved by SaleSession, if any.
func SaleSessionFromContext(ctx context.Context) (auth.Session, bool) {
	if ctx == nil {
		return auth.Session{}, false
	}
	sess, ok := ctx.Value(ctxSaleSession).(auth.Session)
	return sess, ok
}

// WithSaleSession injects the seller session into the context.
func WithSaleSession(ctx context.Context, sess auth.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSaleSession, sess)
}

// WithAdmin injects the back office identity into the context.
func WithAdmin(ctx context.Context, subject, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAdminSubject, subject)
	return context.WithValue(ctx, ctxAdminRole, role)
}
